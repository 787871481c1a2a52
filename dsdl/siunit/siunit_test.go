package siunit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-rossrobotics/cyphal/dsdl"
)

func TestScalarWireLayouts(t *testing.T) {
	data, err := dsdl.Marshal(PressureScalar{Pascal: 1}, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, data)

	data, err = dsdl.Marshal(DurationWideScalar{Second: 1}, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, data)
}

func TestScalarRoundtrips(t *testing.T) {
	var p PressureScalar
	data, err := dsdl.Marshal(PressureScalar{Pascal: 101325}, 4)
	require.NoError(t, err)
	require.NoError(t, dsdl.Unmarshal(data, &p))
	assert.Equal(t, float32(101325), p.Pascal)

	var k TemperatureScalar
	data, err = dsdl.Marshal(TemperatureScalar{Kelvin: 296.5}, 4)
	require.NoError(t, err)
	require.NoError(t, dsdl.Unmarshal(data, &k))
	assert.Equal(t, float32(296.5), k.Kelvin)

	var d DurationWideScalar
	data, err = dsdl.Marshal(DurationWideScalar{Second: 0.125}, 8)
	require.NoError(t, err)
	require.NoError(t, dsdl.Unmarshal(data, &d))
	assert.Equal(t, 0.125, d.Second)
}
