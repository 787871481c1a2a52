// Package udral provides typed wrappers for the reg.udral DSDL namespace.
package udral

import (
	"github.com/edu-rossrobotics/cyphal/dsdl"
	"github.com/edu-rossrobotics/cyphal/dsdl/uavcannode"
)

// Readiness is reg.udral.service.common.Readiness.0.1 (2 bits on the wire):
// the service arming state.
type Readiness uint8

const (
	ReadinessSleep   Readiness = 0
	ReadinessStandby Readiness = 2
	ReadinessEngaged Readiness = 3
)

// ServiceHeartbeatMaxSerializedSize is the serialization buffer size of
// reg.udral.service.common.Heartbeat.0.1.
const ServiceHeartbeatMaxSerializedSize = 2

// ServiceHeartbeat is reg.udral.service.common.Heartbeat.0.1: the status
// contract every UDRAL service publishes alongside the node heartbeat.
type ServiceHeartbeat struct {
	Readiness Readiness
	Health    uavcannode.Health
}

func (ServiceHeartbeat) MaxSerializedSize() int { return ServiceHeartbeatMaxSerializedSize }

func (h ServiceHeartbeat) MarshalDSDL(e *dsdl.Encoder) error {
	if err := e.WriteBits(uint64(h.Readiness), 2); err != nil {
		return err
	}
	e.AlignToByte()
	if err := e.WriteBits(uint64(h.Health), 2); err != nil {
		return err
	}
	e.AlignToByte()
	return nil
}

func (h *ServiceHeartbeat) UnmarshalDSDL(d *dsdl.Decoder) error {
	h.Readiness = Readiness(d.ReadBits(2))
	d.AlignToByte()
	h.Health = uavcannode.Health(d.ReadBits(2))
	d.AlignToByte()
	return nil
}
