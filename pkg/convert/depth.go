package convert

import (
	"encoding/binary"
	"math"

	"github.com/mrjoshuak/go-openexr/half"
)

// depthScale converts the source's centimeter units into meters.
const depthScale = 100

// decodeDepth is the single per-pixel depth conversion both paths share.
func decodeDepth(v uint16) float32 {
	return half.Half(v).Float32() / depthScale
}

// UnpackDepth decodes half-float depth samples into float32 meters,
// processing four pixels per iteration with a scalar tail. The batching is
// a lane-width choice, not a semantic one: UnpackDepthScalar produces
// bit-identical output.
func UnpackDepth(src []uint16, dst []float32) {
	n := len(src) &^ 3
	for i := 0; i < n; i += 4 {
		dst[i] = decodeDepth(src[i])
		dst[i+1] = decodeDepth(src[i+1])
		dst[i+2] = decodeDepth(src[i+2])
		dst[i+3] = decodeDepth(src[i+3])
	}
	for i := n; i < len(src); i++ {
		dst[i] = decodeDepth(src[i])
	}
}

// UnpackDepthScalar is the conformance reference for UnpackDepth.
func UnpackDepthScalar(src []uint16, dst []float32) {
	for i, v := range src {
		dst[i] = decodeDepth(v)
	}
}

// UnpackDepthInto decodes depth samples directly into a little-endian
// float32 byte segment. dst must hold 4*len(src) bytes.
func UnpackDepthInto(src []uint16, dst []byte) {
	n := len(src) &^ 3
	for i := 0; i < n; i += 4 {
		o := i * 4
		binary.LittleEndian.PutUint32(dst[o:o+4], math.Float32bits(decodeDepth(src[i])))
		binary.LittleEndian.PutUint32(dst[o+4:o+8], math.Float32bits(decodeDepth(src[i+1])))
		binary.LittleEndian.PutUint32(dst[o+8:o+12], math.Float32bits(decodeDepth(src[i+2])))
		binary.LittleEndian.PutUint32(dst[o+12:o+16], math.Float32bits(decodeDepth(src[i+3])))
	}
	for i := n; i < len(src); i++ {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], math.Float32bits(decodeDepth(src[i])))
	}
}
