package scene

import (
	"fmt"
	"math"
	"time"

	"github.com/disintegration/imaging"

	"visionstream/pkg/convert"
	"visionstream/pkg/packet"
)

// ImageSource serves a still image from disk as the color channel,
// resampled once to the stream resolution, with a flat synthetic depth
// plane and a slow orbital pose. Useful for exercising the full pipeline
// against a known picture.
type ImageSource struct {
	width  uint32
	height uint32
	rgba   []uint8
	depth  []uint16
	start  time.Time
}

// NewImageSource loads and resizes the image at path to width x height.
func NewImageSource(path string, width, height uint32, depthMeters float64) (*ImageSource, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open image source: %w", err)
	}
	resized := imaging.Resize(img, int(width), int(height), imaging.Lanczos)

	pixels := int(width * height)
	rgba := make([]uint8, pixels*4)
	copy(rgba, resized.Pix)

	depth := make([]uint16, pixels)
	cm := convert.EncodeHalf(float32(depthMeters * 100))
	for i := range depth {
		depth[i] = cm
	}

	return &ImageSource{
		width:  width,
		height: height,
		rgba:   rgba,
		depth:  depth,
		start:  time.Now(),
	}, nil
}

// Capture implements Source.
func (s *ImageSource) Capture() (Capture, error) {
	t := time.Since(s.start).Seconds()
	yaw := 0.1 * t
	return Capture{
		Pose: Pose{
			Location: packet.Vec3{X: 50 * math.Cos(yaw), Y: 50 * math.Sin(yaw), Z: 120},
			Rotation: packet.Quat{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)},
		},
		Color: convert.ColorImage{Format: convert.FormatColor, RGBA8: s.rgba},
		Depth: s.depth,
	}, nil
}
