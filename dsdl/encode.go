package dsdl

import (
	"errors"
	"fmt"
	"math"
)

// ErrBufferFull indicates a write past the encoder's fixed capacity.
var ErrBufferFull = errors.New("dsdl: buffer full")

// Encoder packs values into a fixed-size buffer bit by bit.
// Bits are filled least significant first within each byte.
type Encoder struct {
	buf []byte
	bit int
}

// NewEncoder creates an encoder with the given capacity in bytes.
func NewEncoder(capacity int) *Encoder {
	return &Encoder{buf: make([]byte, capacity)}
}

// WriteBits appends the n least significant bits of value.
func (e *Encoder) WriteBits(value uint64, n int) error {
	if n < 0 || n > 64 {
		return fmt.Errorf("dsdl: invalid bit count %d", n)
	}
	if e.bit+n > len(e.buf)*8 {
		return ErrBufferFull
	}
	for i := 0; i < n; i++ {
		if value>>uint(i)&1 != 0 {
			e.buf[e.bit/8] |= 1 << uint(e.bit%8)
		}
		e.bit++
	}
	return nil
}

// AlignToByte pads with zero bits up to the next byte boundary.
func (e *Encoder) AlignToByte() {
	if rem := e.bit % 8; rem != 0 {
		e.bit += 8 - rem
	}
}

// WriteBool appends a single bit.
func (e *Encoder) WriteBool(v bool) error {
	var b uint64
	if v {
		b = 1
	}
	return e.WriteBits(b, 1)
}

// WriteUint8 appends an 8-bit unsigned integer.
func (e *Encoder) WriteUint8(v uint8) error { return e.WriteBits(uint64(v), 8) }

// WriteUint16 appends a 16-bit unsigned integer.
func (e *Encoder) WriteUint16(v uint16) error { return e.WriteBits(uint64(v), 16) }

// WriteUint32 appends a 32-bit unsigned integer.
func (e *Encoder) WriteUint32(v uint32) error { return e.WriteBits(uint64(v), 32) }

// WriteUint64 appends a 64-bit unsigned integer.
func (e *Encoder) WriteUint64(v uint64) error { return e.WriteBits(v, 64) }

// WriteFloat16 appends an IEEE 754 binary16 value.
func (e *Encoder) WriteFloat16(v float32) error {
	return e.WriteBits(uint64(Float16Bits(v)), 16)
}

// WriteFloat32 appends an IEEE 754 binary32 value.
func (e *Encoder) WriteFloat32(v float32) error {
	return e.WriteBits(uint64(math.Float32bits(v)), 32)
}

// WriteFloat64 appends an IEEE 754 binary64 value.
func (e *Encoder) WriteFloat64(v float64) error {
	return e.WriteBits(math.Float64bits(v), 64)
}

// BitLength reports the number of bits written so far.
func (e *Encoder) BitLength() int { return e.bit }

// Bytes returns the written bytes, rounded up to a whole byte.
func (e *Encoder) Bytes() []byte {
	return e.buf[:(e.bit+7)/8]
}
