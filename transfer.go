package cyphal

import (
	"errors"
	"time"
)

// Priority is the 3-bit transfer priority level. Lower values win bus
// arbitration.
type Priority uint8

// Priority level mnemonics per the Cyphal specification recommendations.
const (
	PriorityExceptional Priority = iota
	PriorityImmediate
	PriorityFast
	PriorityHigh
	PriorityNominal // default
	PriorityLow
	PrioritySlow
	PriorityOptional
)

// TransferKind discriminates messages from the two service directions.
type TransferKind uint8

const (
	KindMessage  TransferKind = iota // multicast, publisher to subscribers
	KindResponse                     // point-to-point, server to client
	KindRequest                      // point-to-point, client to server
)

func (k TransferKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindResponse:
		return "response"
	case KindRequest:
		return "request"
	default:
		return "invalid"
	}
}

// PortID identifies a message subject or a service.
type PortID uint16

// NodeID identifies a node on the bus. NodeIDUnset marks an anonymous node.
type NodeID uint8

// TransferID is the cyclic 5-bit transfer sequence number.
type TransferID uint8

// Parameter ranges are inclusive; the lower bound is zero for all.
const (
	SubjectIDMax PortID = 8191
	ServiceIDMax PortID = 511
	NodeIDMax    NodeID = 127
	NodeIDUnset  NodeID = 255

	transferIDModulo = 32
	TransferIDMax    = TransferID(transferIDModulo - 1)
)

// DefaultTransferIDTimeout is the session timeout after which a repeated
// transfer-ID is treated as a new transfer rather than a duplicate.
const DefaultTransferIDTimeout = 2 * time.Second

var (
	ErrInvalidPort        = errors.New("cyphal: port out of range")
	ErrInvalidNodeID      = errors.New("cyphal: node id out of range")
	ErrPayloadTooLarge    = errors.New("cyphal: payload exceeds single-frame MTU")
	ErrQueueFull          = errors.New("cyphal: tx queue full")
	ErrAnonymousService   = errors.New("cyphal: anonymous node cannot use services")
	ErrMultiFrameTransfer = errors.New("cyphal: multi-frame transfer not supported")
	ErrNotCyphal          = errors.New("cyphal: frame is not a cyphal transfer frame")
)

// TransferMetadata identifies one transfer on the bus.
type TransferMetadata struct {
	Priority Priority
	Kind     TransferKind
	Port     PortID
	// Remote is the source node for received transfers and the destination
	// for emitted service transfers. NodeIDUnset for messages/broadcast.
	Remote     NodeID
	TransferID TransferID
}

// Transfer is a received transfer handed to subscription handlers. The
// payload buffer is only valid for the duration of the handler call; it is
// recycled afterwards.
type Transfer struct {
	TransferMetadata
	Payload   []byte
	Timestamp time.Time
}

// Tail byte bits.
const (
	tailStartOfTransfer = 0x80
	tailEndOfTransfer   = 0x40
	tailToggle          = 0x20
	tailTransferIDMask  = 0x1F
)

// makeTailByte builds a single-frame tail byte. The toggle bit starts at 1.
func makeTailByte(id TransferID) byte {
	return tailStartOfTransfer | tailEndOfTransfer | tailToggle | byte(id&tailTransferIDMask)
}
