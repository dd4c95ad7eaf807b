// Package convert implements the per-pixel numeric conversions of the
// frame pipeline: the gamma/contrast/brightness tone mapping that turns
// source color samples into wire bytes, and the half-float depth unpacker.
package convert

import (
	"fmt"
	"math"

	"github.com/mrjoshuak/go-openexr/half"
)

// Tonemap is the per-channel tone-mapping configuration. Gamma must be
// positive. Contrast 0 and brightness 0 are neutral: with gamma 1 the
// transform is the identity byte mapping.
type Tonemap struct {
	Gamma      float64
	Contrast   float64
	Brightness float64
}

// Validate rejects configurations the transform cannot run with.
func (t Tonemap) Validate() error {
	if t.Gamma <= 0 {
		return fmt.Errorf("convert: gamma must be positive, got %g", t.Gamma)
	}
	return nil
}

// apply runs the shared math path on a sample normalized to [0,1].
func (t Tonemap) apply(v float64) uint8 {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	out := math.Pow(v, 1/t.Gamma) * 255
	out += t.Contrast*(out-128) + t.Brightness
	if out > 255 {
		out = 255
	} else if out < 0 {
		out = 0
	}
	return uint8(math.Round(out))
}

// Byte tone-maps an 8-bit normalized sample.
func (t Tonemap) Byte(v uint8) uint8 {
	return t.apply(float64(v) / 255)
}

// Linear tone-maps a linear float sample in [0,1].
func (t Tonemap) Linear(v float32) uint8 {
	return t.apply(float64(v))
}

// Half tone-maps a compressed half-float sample in [0,1].
func (t Tonemap) Half(v uint16) uint8 {
	return t.apply(float64(half.Half(v).Float32()))
}

// ColorFormat selects the encoding of a captured color frame.
type ColorFormat uint8

const (
	// FormatColor is 8-bit RGBA, 4 bytes per pixel.
	FormatColor ColorFormat = iota
	// FormatLinearColor is linear float32 RGBA, 4 floats per pixel.
	FormatLinearColor
	// FormatHalfColor is compressed half-float RGBA, 4 halfs per pixel.
	FormatHalfColor
)

func (f ColorFormat) String() string {
	switch f {
	case FormatColor:
		return "color"
	case FormatLinearColor:
		return "linear"
	case FormatHalfColor:
		return "half"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// ColorImage carries one frame's color samples in exactly one of the
// three supported encodings. Channel order is R,G,B,A per pixel.
type ColorImage struct {
	Format ColorFormat
	RGBA8  []uint8
	Linear []float32
	Half   []uint16
}

// Pixels returns the pixel count of the populated encoding.
func (img ColorImage) Pixels() int {
	switch img.Format {
	case FormatLinearColor:
		return len(img.Linear) / 4
	case FormatHalfColor:
		return len(img.Half) / 4
	default:
		return len(img.RGBA8) / 4
	}
}

// BGRInto tone-maps img into dst as 3 bytes per pixel in B,G,R order.
// dst must hold 3*img.Pixels() bytes.
func (t Tonemap) BGRInto(img ColorImage, dst []byte) {
	switch img.Format {
	case FormatLinearColor:
		src := img.Linear
		for i, o := 0, 0; i < len(src); i, o = i+4, o+3 {
			dst[o] = t.Linear(src[i+2])
			dst[o+1] = t.Linear(src[i+1])
			dst[o+2] = t.Linear(src[i])
		}
	case FormatHalfColor:
		src := img.Half
		for i, o := 0, 0; i < len(src); i, o = i+4, o+3 {
			dst[o] = t.Half(src[i+2])
			dst[o+1] = t.Half(src[i+1])
			dst[o+2] = t.Half(src[i])
		}
	default:
		src := img.RGBA8
		for i, o := 0, 0; i < len(src); i, o = i+4, o+3 {
			dst[o] = t.Byte(src[i+2])
			dst[o+1] = t.Byte(src[i+1])
			dst[o+2] = t.Byte(src[i])
		}
	}
}
