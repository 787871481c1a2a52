package dsdl

import "math"

// IEEE 754 binary16 conversion helpers. Subnormals, infinities and NaN are
// preserved; values out of half range saturate to infinity.

// Float16Bits converts a float32 to its binary16 bit pattern.
func Float16Bits(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b >> 16 & 0x8000)
	exp := int32(b>>23&0xFF) - 127 + 15
	frac := b & 0x7FFFFF

	switch {
	case int32(b>>23&0xFF) == 0xFF: // inf or NaN
		if frac != 0 {
			return sign | 0x7E00 // quiet NaN
		}
		return sign | 0x7C00
	case exp >= 0x1F: // overflow -> inf
		return sign | 0x7C00
	case exp <= 0:
		if exp < -10 { // underflow -> zero
			return sign
		}
		// Subnormal: shift in the implicit leading bit.
		frac |= 0x800000
		shift := uint32(14 - exp)
		half := uint16(frac >> shift)
		// Round to nearest.
		if frac>>(shift-1)&1 != 0 {
			half++
		}
		return sign | half
	default:
		half := sign | uint16(exp)<<10 | uint16(frac>>13)
		// Round to nearest.
		if frac&0x1000 != 0 {
			half++
		}
		return half
	}
}

// Float16From converts a binary16 bit pattern to float32.
func Float16From(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h >> 10 & 0x1F)
	frac := uint32(h & 0x3FF)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: normalize.
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3FF
		return math.Float32frombits(sign | e<<23 | frac<<13)
	case 0x1F:
		if frac == 0 {
			return math.Float32frombits(sign | 0x7F800000)
		}
		return math.Float32frombits(sign | 0x7FC00000)
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | frac<<13)
	}
}
