package cyphal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-rossrobotics/cyphal/can"
	"github.com/edu-rossrobotics/cyphal/dsdl"
	"github.com/edu-rossrobotics/cyphal/dsdl/siunit"
	"github.com/edu-rossrobotics/cyphal/dsdl/uavcannode"
	"github.com/edu-rossrobotics/cyphal/dsdl/udral"
)

func TestTyped_PublishSubscribeHeartbeat(t *testing.T) {
	pair, a, b := newTestPair(t)

	var got []uavcannode.Heartbeat
	require.NoError(t, SubscribeMessage(b, PortID(uavcannode.HeartbeatSubjectID),
		func(hb uavcannode.Heartbeat, tr Transfer) {
			assert.Equal(t, NodeID(10), tr.Remote)
			got = append(got, hb)
		}))

	sent := uavcannode.Heartbeat{
		Uptime:       3600,
		Health:       uavcannode.HealthCaution,
		Mode:         uavcannode.ModeOperational,
		VendorStatus: 0x5A,
	}
	require.NoError(t, PublishMessage(a, PortID(uavcannode.HeartbeatSubjectID), sent))
	require.NoError(t, a.Spin())
	shuttle(t, pair.EpB, b, 1)

	require.Len(t, got, 1)
	assert.Equal(t, sent, got[0])
}

func TestTyped_PublishSubscribePressureTemp(t *testing.T) {
	bus := can.NewLoopbackBus()
	defer bus.Close()
	epA := bus.Open()
	epB := bus.Open()
	a, err := New(epA, 10, WithMTU(MTUFD))
	require.NoError(t, err)
	b, err := New(epB, 20, WithMTU(MTUFD))
	require.NoError(t, err)

	var got udral.PressureTempVarTs
	require.NoError(t, SubscribeMessage(b, 2100, func(m udral.PressureTempVarTs, _ Transfer) {
		got = m
	}))

	sent := udral.PressureTempVarTs{
		Timestamp:   123456789,
		Pressure:    101325,
		Temperature: 296.5,
	}
	require.NoError(t, PublishMessage(a, 2100, sent))
	require.NoError(t, a.Spin())
	shuttle(t, epB, b, 1)

	assert.Equal(t, sent.Timestamp, got.Timestamp)
	assert.Equal(t, sent.Pressure, got.Pressure)
	assert.Equal(t, sent.Temperature, got.Temperature)
}

func TestTyped_RequestRespond(t *testing.T) {
	pair, client, server := newTestPair(t)

	require.NoError(t, server.Subscribe(KindRequest, 200, 4, func(n *Node, tr Transfer) {
		var req siunit.TemperatureScalar
		require.NoError(t, dsdl.Unmarshal(tr.Payload, &req))
		require.NoError(t, RespondTyped(n, tr, siunit.PressureScalar{Pascal: req.Kelvin * 2}))
	}))

	var got siunit.PressureScalar
	calls := 0
	require.NoError(t, RequestTyped[siunit.TemperatureScalar, siunit.PressureScalar](
		client, 20, 200, siunit.TemperatureScalar{Kelvin: 300},
		func(resp siunit.PressureScalar, _ Transfer) {
			calls++
			got = resp
		}))
	require.NoError(t, client.Spin())

	shuttle(t, pair.EpB, server, 1)
	shuttle(t, pair.EpA, client, 1)

	assert.Equal(t, 1, calls)
	assert.Equal(t, float32(600), got.Pascal)
}

func TestTyped_TruncatedPayloadZeroExtends(t *testing.T) {
	bus := can.NewLoopbackBus()
	defer bus.Close()
	n, err := New(bus.Open(), 1)
	require.NoError(t, err)

	fired := false
	require.NoError(t, SubscribeMessage(n, 30, func(_ uavcannode.Heartbeat, _ Transfer) {
		fired = true
	}))

	// A truncated payload still decodes thanks to implicit zero extension,
	// so the handler fires with zero-filled fields.
	f := singleFrame(messageCANID(PriorityNominal, 30, 2, false), []byte{0xFF}, 0)
	n.OnFrameReceived(f, n.now())
	require.NoError(t, n.Spin())
	assert.True(t, fired)
}
