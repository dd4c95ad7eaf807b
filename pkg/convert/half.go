package convert

import "math"

// EncodeHalf packs a float32 into IEEE 754 binary16 with round-to-nearest-
// even. The simulated renderer and the conformance tests use it to produce
// the half-encoded samples the unpacker consumes; decoding goes through
// the openexr half package.
func EncodeHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp32 := int32(bits >> 23 & 0xff)
	mant := bits & 0x7fffff
	exp := exp32 - 127 + 15

	switch {
	case exp32 == 0xff: // inf or nan
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp >= 0x1f: // overflow to inf
		return sign | 0x7c00
	case exp <= 0: // subnormal or underflow to zero
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		h := uint16(mant >> shift)
		rem := mant & (1<<shift - 1)
		halfway := uint32(1) << (shift - 1)
		if rem > halfway || (rem == halfway && h&1 == 1) {
			h++
		}
		return sign | h
	default:
		h := uint16(exp)<<10 | uint16(mant>>13)
		rem := mant & 0x1fff
		if rem > 0x1000 || (rem == 0x1000 && h&1 == 1) {
			h++ // rounding may carry into the exponent, which is correct
		}
		return sign | h
	}
}
