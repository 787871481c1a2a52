package dsdl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_BitPacking(t *testing.T) {
	e := NewEncoder(4)
	require.NoError(t, e.WriteBits(0b101, 3))
	require.NoError(t, e.WriteBits(0b11, 2))
	e.AlignToByte()
	require.NoError(t, e.WriteUint8(0xAB))

	// Bits fill LSB first: 101 then 11 -> 0b00011101 = 0x1D.
	assert.Equal(t, []byte{0x1D, 0xAB}, e.Bytes())
	assert.Equal(t, 16, e.BitLength())
}

func TestEncoder_LittleEndianMultiByte(t *testing.T) {
	e := NewEncoder(8)
	require.NoError(t, e.WriteUint32(0xDEADBEEF))
	require.NoError(t, e.WriteUint16(0x1234))
	assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE, 0x34, 0x12}, e.Bytes())
}

func TestEncoder_BufferFull(t *testing.T) {
	e := NewEncoder(1)
	require.NoError(t, e.WriteBits(0x7F, 7))
	assert.ErrorIs(t, e.WriteBits(0b11, 2), ErrBufferFull)
	// The failed write must not consume capacity.
	require.NoError(t, e.WriteBool(true))
}

func TestDecoder_Roundtrip(t *testing.T) {
	e := NewEncoder(32)
	require.NoError(t, e.WriteBits(5, 3))
	e.AlignToByte()
	require.NoError(t, e.WriteUint32(42424242))
	require.NoError(t, e.WriteFloat32(3.5))
	require.NoError(t, e.WriteFloat64(-1.25e9))
	require.NoError(t, e.WriteFloat16(1.5))
	require.NoError(t, e.WriteBool(true))

	d := NewDecoder(e.Bytes())
	assert.Equal(t, uint64(5), d.ReadBits(3))
	d.AlignToByte()
	assert.Equal(t, uint32(42424242), d.ReadUint32())
	assert.Equal(t, float32(3.5), d.ReadFloat32())
	assert.Equal(t, -1.25e9, d.ReadFloat64())
	assert.Equal(t, float32(1.5), d.ReadFloat16())
	assert.True(t, d.ReadBool())
}

func TestDecoder_ZeroExtension(t *testing.T) {
	d := NewDecoder([]byte{0xFF})
	assert.Equal(t, uint8(0xFF), d.ReadUint8())
	// Past the end of the buffer everything reads as zero.
	assert.Equal(t, uint32(0), d.ReadUint32())
	assert.Equal(t, uint64(0), d.ReadBits(64))
}

func TestFloat16_Conversions(t *testing.T) {
	cases := []float32{0, 1, -1, 0.5, 1.5, 65504, -65504, 6.1035156e-05}
	for _, v := range cases {
		assert.Equal(t, v, Float16From(Float16Bits(v)), "value %v", v)
	}

	// Out of range saturates to infinity.
	assert.True(t, math.IsInf(float64(Float16From(Float16Bits(1e6))), 1))
	assert.True(t, math.IsInf(float64(Float16From(Float16Bits(float32(math.Inf(-1))))), -1))

	// NaN stays NaN.
	nan := Float16From(Float16Bits(float32(math.NaN())))
	assert.True(t, math.IsNaN(float64(nan)))

	// Negative zero keeps its sign bit.
	assert.Equal(t, uint16(0x8000), Float16Bits(float32(math.Copysign(0, -1))))
}
