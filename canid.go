package cyphal

import (
	"github.com/edu-rossrobotics/cyphal/can"
)

// 29-bit CAN identifier layout per the Cyphal/CAN specification.
const (
	offsetPriority  = 26
	offsetServiceID = 14
	offsetSubjectID = 8
	offsetDstNodeID = 7

	flagServiceNotMessage  = 1 << 25
	flagAnonymousMessage   = 1 << 24
	flagRequestNotResponse = 1 << 24
	flagReserved23         = 1 << 23
	flagReserved22         = 1 << 22
	flagReserved21         = 1 << 21
	flagReserved07         = 1 << 7

	nodeIDMask = 0x7F
)

// messageCANID builds the identifier of a message frame. Reserved bits 21
// and 22 are set on emission and ignored on reception, as the transport
// requires.
func messageCANID(prio Priority, subject PortID, src NodeID, anonymous bool) uint32 {
	id := uint32(prio)<<offsetPriority |
		flagReserved22 | flagReserved21 |
		uint32(subject)<<offsetSubjectID |
		uint32(src&nodeIDMask)
	if anonymous {
		id |= flagAnonymousMessage
	}
	return id
}

// serviceCANID builds the identifier of a service frame.
func serviceCANID(prio Priority, service PortID, dst, src NodeID, request bool) uint32 {
	id := uint32(prio)<<offsetPriority |
		flagServiceNotMessage |
		uint32(service)<<offsetServiceID |
		uint32(dst&nodeIDMask)<<offsetDstNodeID |
		uint32(src&nodeIDMask)
	if request {
		id |= flagRequestNotResponse
	}
	return id
}

// FrameInfo is the decoded transport view of one received CAN frame.
type FrameInfo struct {
	Priority   Priority
	Kind       TransferKind
	Port       PortID
	Source     NodeID // NodeIDUnset for anonymous messages
	Dest       NodeID // NodeIDUnset for messages
	TransferID TransferID
	Payload    []byte // view into the frame data, tail byte stripped
}

// ParseFrame decodes a received CAN frame into its transport metadata.
// Frames that are not valid Cyphal transfer frames yield ErrNotCyphal;
// frames that belong to a multi-frame transfer yield ErrMultiFrameTransfer.
func ParseFrame(f *can.Frame) (FrameInfo, error) {
	var info FrameInfo
	if !f.Extended || f.RTR || f.Len == 0 {
		return info, ErrNotCyphal
	}
	id := f.ID
	info.Priority = Priority(id >> offsetPriority & 7)

	if id&flagServiceNotMessage == 0 {
		if id&(flagReserved23|flagReserved07) != 0 {
			return info, ErrNotCyphal
		}
		info.Kind = KindMessage
		info.Port = PortID(id>>offsetSubjectID) & SubjectIDMax
		info.Dest = NodeIDUnset
		if id&flagAnonymousMessage != 0 {
			info.Source = NodeIDUnset
		} else {
			info.Source = NodeID(id & nodeIDMask)
		}
	} else {
		if id&flagReserved23 != 0 {
			return info, ErrNotCyphal
		}
		if id&flagRequestNotResponse != 0 {
			info.Kind = KindRequest
		} else {
			info.Kind = KindResponse
		}
		info.Port = PortID(id>>offsetServiceID) & ServiceIDMax
		info.Dest = NodeID(id >> offsetDstNodeID & nodeIDMask)
		info.Source = NodeID(id & nodeIDMask)
		if info.Source == info.Dest {
			return info, ErrNotCyphal
		}
	}

	tail := f.Data[f.Len-1]
	info.TransferID = TransferID(tail & tailTransferIDMask)
	sot := tail&tailStartOfTransfer != 0
	eot := tail&tailEndOfTransfer != 0
	toggle := tail&tailToggle != 0
	if !sot || !eot {
		return info, ErrMultiFrameTransfer
	}
	if !toggle {
		// Single-frame transfers carry toggle=1; toggle=0 with SOT set marks
		// the legacy v0 protocol.
		return info, ErrNotCyphal
	}
	info.Payload = f.Data[:f.Len-1]
	return info, nil
}
