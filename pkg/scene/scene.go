// Package scene defines the surfaces the frame pipeline calls into:
// something that can capture pose and pixel data, and entities that can
// carry a segmentation color. Real renderers live behind these interfaces;
// the daemon ships a synthetic one.
package scene

import (
	"fmt"

	"visionstream/pkg/convert"
	"visionstream/pkg/packet"
	"visionstream/pkg/palette"
)

// Pose is the camera pose in source-engine convention: location in
// centimeters, left-handed axes. The cadence driver converts it to the
// wire convention when populating the packet header.
type Pose struct {
	Location packet.Vec3
	Rotation packet.Quat
}

// Capture is one frame's raw sensor data.
type Capture struct {
	Pose  Pose
	Color convert.ColorImage
	Depth []uint16 // half-encoded centimeters, row-major
}

// Source produces per-frame sensor data. Capture is called once per
// triggered tick on the driver goroutine.
type Source interface {
	Capture() (Capture, error)
}

// Entity is anything the segmentation pass can name.
type Entity interface {
	Name() string
}

// Paintable is the capability an entity exposes when its rendered surface
// can carry a palette color.
type Paintable interface {
	HasPaintableSurface() bool
	ApplyColor(index int)
}

// Recolor regenerates the palette for the given entities, assigns each a
// stable color index and applies it to paintable surfaces. The palette is
// generated at twice the entity count so later arrivals can be assigned
// without an immediate regeneration. Returns the object-map entries for
// the packet stream.
func Recolor(p *palette.Palette, entities []Entity) ([]packet.MapEntry, error) {
	n := len(entities) * 2
	if existing := len(p.Entries()); n < existing*2 {
		n = existing * 2
	}
	if n == 0 {
		n = 1
	}
	p.Generate(n)

	for _, e := range entities {
		idx, err := p.Assign(e.Name())
		if err != nil {
			return nil, fmt.Errorf("scene: recolor %q: %w", e.Name(), err)
		}
		if paintable, ok := e.(Paintable); ok && paintable.HasPaintableSurface() {
			paintable.ApplyColor(idx)
		}
	}
	return p.Entries(), nil
}
