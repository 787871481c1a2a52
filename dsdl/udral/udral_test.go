package udral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-rossrobotics/cyphal/dsdl"
	"github.com/edu-rossrobotics/cyphal/dsdl/uavcannode"
)

func TestServiceHeartbeatWireLayout(t *testing.T) {
	hb := ServiceHeartbeat{
		Readiness: ReadinessEngaged,
		Health:    uavcannode.HealthAdvisory,
	}
	data, err := dsdl.Marshal(hb, hb.MaxSerializedSize())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x01}, data)

	var out ServiceHeartbeat
	require.NoError(t, dsdl.Unmarshal(data, &out))
	assert.Equal(t, hb, out)
}

func TestPressureTempVarTsWireLayout(t *testing.T) {
	p := PressureTempVarTs{
		Timestamp:     0x00DEADBEEFCAFE,
		Pressure:      1.0,
		Temperature:   -2.5,
		CovarianceURT: [3]float32{1.0, 0.5, 0},
	}
	data, err := dsdl.Marshal(p, p.MaxSerializedSize())
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0xFE, 0xCA, 0xEF, 0xBE, 0xAD, 0xDE, 0x00, // timestamp, 56 bits
		0x00, 0x00, 0x80, 0x3F, // pressure
		0x00, 0x00, 0x20, 0xC0, // temperature
		0x00, 0x3C, 0x00, 0x38, 0x00, 0x00, // covariance, float16
	}, data)
}

func TestPressureTempVarTsRoundtrip(t *testing.T) {
	in := PressureTempVarTs{
		Timestamp:     123456789,
		Pressure:      101325,
		Temperature:   296.25,
		CovarianceURT: [3]float32{2, 0.25, 4},
	}
	data, err := dsdl.Marshal(in, in.MaxSerializedSize())
	require.NoError(t, err)
	require.Len(t, data, PressureTempVarTsMaxSerializedSize)

	var out PressureTempVarTs
	require.NoError(t, dsdl.Unmarshal(data, &out))
	// Covariance values chosen to be exact in float16.
	assert.Equal(t, in, out)
}
