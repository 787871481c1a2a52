// Package uavcannode provides typed wrappers for the uavcan.node DSDL
// namespace.
package uavcannode

import (
	"github.com/edu-rossrobotics/cyphal/dsdl"
)

// HeartbeatSubjectID is the fixed subject of uavcan.node.Heartbeat.1.0.
const HeartbeatSubjectID uint16 = 7509

// Health is uavcan.node.Health.1.0 (2 bits on the wire).
type Health uint8

const (
	HealthNominal  Health = 0
	HealthAdvisory Health = 1
	HealthCaution  Health = 2
	HealthWarning  Health = 3
)

// Mode is uavcan.node.Mode.1.0 (3 bits on the wire).
type Mode uint8

const (
	ModeOperational    Mode = 0
	ModeInitialization Mode = 1
	ModeMaintenance    Mode = 2
	ModeSoftwareUpdate Mode = 3
)

// HeartbeatMaxSerializedSize is the serialization buffer size of
// uavcan.node.Heartbeat.1.0.
const HeartbeatMaxSerializedSize = 7

// Heartbeat is uavcan.node.Heartbeat.1.0: the mandatory periodic status
// message every non-anonymous node publishes.
type Heartbeat struct {
	Uptime       uint32 // seconds since startup
	Health       Health
	Mode         Mode
	VendorStatus uint8 // vendor-specific status code
}

func (Heartbeat) MaxSerializedSize() int { return HeartbeatMaxSerializedSize }

// MarshalDSDL lays the fields out the way the generated codec does: each
// nested composite starts on a byte boundary.
func (h Heartbeat) MarshalDSDL(e *dsdl.Encoder) error {
	if err := e.WriteUint32(h.Uptime); err != nil {
		return err
	}
	if err := e.WriteBits(uint64(h.Health), 2); err != nil {
		return err
	}
	e.AlignToByte()
	if err := e.WriteBits(uint64(h.Mode), 3); err != nil {
		return err
	}
	e.AlignToByte()
	return e.WriteUint8(h.VendorStatus)
}

func (h *Heartbeat) UnmarshalDSDL(d *dsdl.Decoder) error {
	h.Uptime = d.ReadUint32()
	h.Health = Health(d.ReadBits(2))
	d.AlignToByte()
	h.Mode = Mode(d.ReadBits(3))
	d.AlignToByte()
	h.VendorStatus = d.ReadUint8()
	return nil
}
