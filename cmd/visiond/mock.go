package main

import (
	"math"
	"time"

	"visionstream/pkg/convert"
	"visionstream/pkg/packet"
	"visionstream/pkg/scene"
)

const (
	mockRollAmplitudeRad  = 8.0 * math.Pi / 180.0
	mockPitchAmplitudeRad = 5.0 * math.Pi / 180.0
	mockYawAmplitudeRad   = 25.0 * math.Pi / 180.0

	mockRollFreqHz  = 0.11
	mockPitchFreqHz = 0.07
	mockYawFreqHz   = 0.05

	mockOrbitRadiusCm = 350.0
	mockHeightCm      = 160.0

	// mockNearCm/mockFarCm bound the synthetic depth sweep.
	mockNearCm = 50.0
	mockFarCm  = 800.0
)

// mockScene is a synthetic RGB-D source: a slowly orbiting camera over a
// gradient color field and a sweeping depth plane. It stands in for the
// renderer the pipeline would normally read from.
type mockScene struct {
	width  uint32
	height uint32
	format convert.ColorFormat
	start  time.Time

	rgba   []uint8
	linear []float32
	half   []uint16
	depth  []uint16
}

func newMockScene(width, height uint32, format convert.ColorFormat) *mockScene {
	pixels := int(width * height)
	s := &mockScene{
		width:  width,
		height: height,
		format: format,
		start:  time.Now(),
		depth:  make([]uint16, pixels),
	}
	switch format {
	case convert.FormatLinearColor:
		s.linear = make([]float32, pixels*4)
	case convert.FormatHalfColor:
		s.half = make([]uint16, pixels*4)
	default:
		s.rgba = make([]uint8, pixels*4)
	}
	return s
}

func (s *mockScene) Capture() (scene.Capture, error) {
	t := time.Since(s.start).Seconds()
	s.renderColor(t)
	s.renderDepth(t)

	img := convert.ColorImage{Format: s.format}
	switch s.format {
	case convert.FormatLinearColor:
		img.Linear = s.linear
	case convert.FormatHalfColor:
		img.Half = s.half
	default:
		img.RGBA8 = s.rgba
	}

	return scene.Capture{
		Pose:  mockPose(t),
		Color: img,
		Depth: s.depth,
	}, nil
}

// renderColor paints a moving two-axis gradient so consecutive frames are
// visibly distinct.
func (s *mockScene) renderColor(t float64) {
	phase := math.Mod(t*0.2, 1)
	w := float64(s.width - 1)
	h := float64(s.height - 1)
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}

	i := 0
	for y := uint32(0); y < s.height; y++ {
		g := float64(y) / h
		for x := uint32(0); x < s.width; x++ {
			r := float64(x) / w
			b := phase

			switch s.format {
			case convert.FormatLinearColor:
				s.linear[i] = float32(r)
				s.linear[i+1] = float32(g)
				s.linear[i+2] = float32(b)
				s.linear[i+3] = 1
			case convert.FormatHalfColor:
				s.half[i] = convert.EncodeHalf(float32(r))
				s.half[i+1] = convert.EncodeHalf(float32(g))
				s.half[i+2] = convert.EncodeHalf(float32(b))
				s.half[i+3] = convert.EncodeHalf(1)
			default:
				s.rgba[i] = uint8(r * 255)
				s.rgba[i+1] = uint8(g * 255)
				s.rgba[i+2] = uint8(b * 255)
				s.rgba[i+3] = 255
			}
			i += 4
		}
	}
}

// renderDepth fills a plane whose distance sweeps between the near and
// far bounds, encoded as half-float centimeters like a GPU depth target.
func (s *mockScene) renderDepth(t float64) {
	sweep := (math.Sin(2*math.Pi*0.1*t) + 1) / 2
	base := mockNearCm + sweep*(mockFarCm-mockNearCm)
	h := float64(s.height - 1)
	if h == 0 {
		h = 1
	}

	i := 0
	for y := uint32(0); y < s.height; y++ {
		// Slight vertical tilt so rows differ.
		cm := base * (1 + 0.1*float64(y)/h)
		enc := convert.EncodeHalf(float32(cm))
		for x := uint32(0); x < s.width; x++ {
			s.depth[i] = enc
			i++
		}
	}
}

func mockPose(t float64) scene.Pose {
	yaw := 2 * math.Pi * mockYawFreqHz * t
	return scene.Pose{
		Location: packet.Vec3{
			X: mockOrbitRadiusCm * math.Cos(yaw),
			Y: mockOrbitRadiusCm * math.Sin(yaw),
			Z: mockHeightCm,
		},
		Rotation: mockQuaternion(t),
	}
}

func mockEulerAngles(t float64) (roll float64, pitch float64, yaw float64) {
	roll = mockRollAmplitudeRad * math.Sin(2.0*math.Pi*mockRollFreqHz*t)
	pitch = mockPitchAmplitudeRad * math.Sin(2.0*math.Pi*mockPitchFreqHz*t)
	yaw = mockYawAmplitudeRad * math.Sin(2.0*math.Pi*mockYawFreqHz*t)
	return
}

func mockQuaternion(t float64) packet.Quat {
	roll, pitch, yaw := mockEulerAngles(t)
	cr := math.Cos(roll * 0.5)
	sr := math.Sin(roll * 0.5)
	cp := math.Cos(pitch * 0.5)
	sp := math.Sin(pitch * 0.5)
	cy := math.Cos(yaw * 0.5)
	sy := math.Sin(yaw * 0.5)

	// ZYX intrinsic rotation (yaw -> pitch -> roll).
	w := cr*cp*cy + sr*sp*sy
	x := sr*cp*cy - cr*sp*sy
	y := cr*sp*cy + sr*cp*sy
	z := cr*cp*sy - sr*sp*cy

	norm := math.Sqrt(w*w + x*x + y*y + z*z)
	if norm == 0 {
		return packet.Quat{W: 1}
	}
	inv := 1.0 / norm
	return packet.Quat{
		X: x * inv,
		Y: y * inv,
		Z: z * inv,
		W: w * inv,
	}
}

// mockEntity is a named scene object with a paintable surface.
type mockEntity struct {
	name    string
	painted int
}

func (e *mockEntity) Name() string              { return e.name }
func (e *mockEntity) HasPaintableSurface() bool { return true }
func (e *mockEntity) ApplyColor(index int)      { e.painted = index }

func mockEntities() []scene.Entity {
	names := []string{"floor", "table", "chair", "person", "door", "window"}
	entities := make([]scene.Entity, len(names))
	for i, name := range names {
		entities[i] = &mockEntity{name: name}
	}
	return entities
}
