package dsdl

import (
	"math"
)

// Decoder unpacks values from a byte buffer bit by bit. Reads past the end of
// the buffer yield zero bits (implicit zero extension), matching the
// tolerance of the generated deserialization routines toward truncated and
// padded payloads.
type Decoder struct {
	buf []byte
	bit int
}

// NewDecoder creates a decoder over the given bytes.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// ReadBits consumes the next n bits and returns them as an unsigned value.
func (d *Decoder) ReadBits(n int) uint64 {
	if n < 0 || n > 64 {
		return 0
	}
	var v uint64
	for i := 0; i < n; i++ {
		idx := d.bit / 8
		if idx < len(d.buf) && d.buf[idx]>>uint(d.bit%8)&1 != 0 {
			v |= 1 << uint(i)
		}
		d.bit++
	}
	return v
}

// AlignToByte discards bits up to the next byte boundary.
func (d *Decoder) AlignToByte() {
	if rem := d.bit % 8; rem != 0 {
		d.bit += 8 - rem
	}
}

// ReadBool consumes one bit.
func (d *Decoder) ReadBool() bool { return d.ReadBits(1) != 0 }

// ReadUint8 consumes 8 bits.
func (d *Decoder) ReadUint8() uint8 { return uint8(d.ReadBits(8)) }

// ReadUint16 consumes 16 bits.
func (d *Decoder) ReadUint16() uint16 { return uint16(d.ReadBits(16)) }

// ReadUint32 consumes 32 bits.
func (d *Decoder) ReadUint32() uint32 { return uint32(d.ReadBits(32)) }

// ReadUint64 consumes 64 bits.
func (d *Decoder) ReadUint64() uint64 { return d.ReadBits(64) }

// ReadFloat16 consumes an IEEE 754 binary16 value.
func (d *Decoder) ReadFloat16() float32 {
	return Float16From(uint16(d.ReadBits(16)))
}

// ReadFloat32 consumes an IEEE 754 binary32 value.
func (d *Decoder) ReadFloat32() float32 {
	return math.Float32frombits(uint32(d.ReadBits(32)))
}

// ReadFloat64 consumes an IEEE 754 binary64 value.
func (d *Decoder) ReadFloat64() float64 {
	return math.Float64frombits(d.ReadBits(64))
}

// BitOffset reports the number of bits consumed so far.
func (d *Decoder) BitOffset() int { return d.bit }
