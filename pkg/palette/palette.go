// Package palette generates the distinct colors used to tag entities for
// instance segmentation and keeps the session-stable name→index mapping.
package palette

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"visionstream/pkg/packet"
)

const (
	// hueCount fixes the number of hue buckets per saturation/value level.
	hueCount = 50
	// hueStride shifts consecutive hues apart so neighbouring indices are
	// easy to tell apart by eye. Coprime with hueCount, so all buckets are
	// visited.
	hueStride = 21

	minSat = 0.65
	minVal = 0.65
)

// RGB is one generated palette color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex formats the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette holds the generated color sequence and the name→index mapping.
// The mapping only grows within a session; Generate replaces the colors
// but existing indices stay valid as long as the new palette is at least
// as large as the number of assigned names.
type Palette struct {
	colors []RGB
	index  map[string]int
	names  []string // by assignment order, parallel to index values
}

// New returns an empty palette.
func New() *Palette {
	return &Palette{index: make(map[string]int)}
}

// Generate produces at least n visually distinct colors. The saturation
// and value level counts are the minimal pair satisfying
// sat*val*hueCount >= n, grown value-first in alternation.
func (p *Palette) Generate(n int) {
	satCount, valCount := 1, 1
	left := n - hueCount
	for left > 0 {
		valCount++
		left = n - satCount*valCount*hueCount
		if left > 0 {
			satCount++
			left = n - satCount*valCount*hueCount
		}
	}

	stepHue := 360.0 / hueCount
	stepSat := 0.0
	if satCount > 1 {
		stepSat = (1.0 - minSat) / float64(satCount-1)
	}
	stepVal := 0.0
	if valCount > 1 {
		stepVal = (1.0 - minVal) / float64(valCount-1)
	}

	colors := make([]RGB, 0, satCount*valCount*hueCount)
	for s := 0; s < satCount; s++ {
		sat := 1.0 - float64(s)*stepSat
		for v := 0; v < valCount; v++ {
			val := 1.0 - float64(v)*stepVal
			for h := 0; h < hueCount; h++ {
				hue := float64((h*hueStride)%hueCount) * stepHue
				r, g, b := colorful.Hsv(hue, sat, val).RGB255()
				colors = append(colors, RGB{R: r, G: g, B: b})
			}
		}
	}
	p.colors = colors
}

// Len reports how many colors are generated.
func (p *Palette) Len() int {
	return len(p.colors)
}

// Assign returns the stable color index for name, inserting it on first
// use. Exceeding the generated capacity is a precondition violation: the
// caller must Generate a large enough palette before assigning.
func (p *Palette) Assign(name string) (int, error) {
	if idx, ok := p.index[name]; ok {
		return idx, nil
	}
	if len(p.index) >= len(p.colors) {
		return 0, fmt.Errorf("palette: exhausted: %d names assigned, %d colors generated", len(p.index), len(p.colors))
	}
	idx := len(p.index)
	p.index[name] = idx
	p.names = append(p.names, name)
	return idx, nil
}

// Color returns the generated color at index.
func (p *Palette) Color(index int) RGB {
	return p.colors[index]
}

// Entries snapshots the name→index mapping in assignment order, ready to
// embed into a packet's object-map segment.
func (p *Palette) Entries() []packet.MapEntry {
	entries := make([]packet.MapEntry, len(p.names))
	for i, name := range p.names {
		entries[i] = packet.MapEntry{Name: name, ColorIndex: uint32(i)}
	}
	return entries
}
