package can

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Frame represents a single CAN frame, classical (2.0A/2.0B) or CAN FD.
//
// Supported features:
//   - Standard (11-bit) and Extended (29-bit) identifiers
//   - Data frames and Remote Transmission Request (RTR, classical only)
//   - Data length 0-8 bytes (classical) or any valid FD length code
//     (0-8, 12, 16, 20, 24, 32, 48, 64)
type Frame struct {
	ID       uint32 // 11-bit (std) or 29-bit (ext)
	Extended bool   // true for 29-bit identifier
	RTR      bool   // remote transmission request (classical only)
	FD       bool   // true for CAN FD frames
	Len      uint8  // 0..8 classical, valid DLC lengths for FD
	Data     [64]byte
}

// Validation limits.
const (
	maxStdID = 0x7FF
	maxExtID = 0x1FFFFFFF
)

var (
	ErrInvalidID  = errors.New("can: invalid identifier")
	ErrInvalidLen = errors.New("can: invalid data length")
	ErrRTRWithFD  = errors.New("can: RTR not supported with FD")
)

// fdLengths is the set of payload sizes a CAN FD data length code can express.
var fdLengths = map[uint8]bool{
	0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true,
	8: true, 12: true, 16: true, 20: true, 24: true, 32: true, 48: true, 64: true,
}

// NextFDLength returns the smallest valid FD payload length >= n.
// It returns 64 for anything between 49 and 64 and panics for n > 64.
func NextFDLength(n int) uint8 {
	if n < 0 || n > 64 {
		panic(ErrInvalidLen)
	}
	for l := n; l <= 64; l++ {
		if fdLengths[uint8(l)] {
			return uint8(l)
		}
	}
	return 64
}

// Validate returns an error if the frame is not valid.
func (f Frame) Validate() error {
	if f.FD {
		if f.RTR {
			return ErrRTRWithFD
		}
		if !fdLengths[f.Len] {
			return ErrInvalidLen
		}
	} else if f.Len > 8 {
		return ErrInvalidLen
	}
	if f.Extended {
		if f.ID > maxExtID {
			return ErrInvalidID
		}
	} else {
		if f.ID > maxStdID {
			return ErrInvalidID
		}
	}
	return nil
}

// MustFrame constructs a classical Frame and panics if invalid.
// Convenience for examples and tests.
func MustFrame(id uint32, data []byte) Frame {
	var f Frame
	f.ID = id
	if id > maxStdID {
		f.Extended = true
	}
	if len(data) > 8 {
		panic(ErrInvalidLen)
	}
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}

// MustFDFrame constructs an extended-ID CAN FD frame, padding the data up to
// the next valid FD length with zero bytes. Panics if invalid.
func MustFDFrame(id uint32, data []byte) Frame {
	var f Frame
	f.ID = id
	f.Extended = true
	f.FD = true
	if len(data) > 64 {
		panic(ErrInvalidLen)
	}
	f.Len = NextFDLength(len(data))
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}

// String renders the frame as "ID [len] XX XX ..." with RTR/FD markers.
func (f Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%X [%d]", f.ID, f.Len)
	if f.RTR {
		b.WriteString(" RTR")
	}
	if f.FD {
		b.WriteString(" FD")
	}
	for i := 0; i < int(f.Len) && i < len(f.Data); i++ {
		fmt.Fprintf(&b, " %02X", f.Data[i])
	}
	return b.String()
}

// SocketCAN flag bits shared by marshal/unmarshal.
const (
	canEffFlag = 0x80000000
	canRtrFlag = 0x40000000
	canEffMask = 0x1FFFFFFF
	canStdMask = 0x7FF
)

// MarshalBinary encodes the frame to the Linux SocketCAN wire layout:
// "struct can_frame" (16 bytes) for classical frames and
// "struct canfd_frame" (72 bytes) for FD frames.
//
// can_frame layout (little-endian):
//
//	0..3  can_id (with flags: EFF/RTR/ERR)
//	4     can_dlc (data length code)
//	5..7  padding (set to zero)
//	8..15 data bytes
//
// canfd_frame replaces byte 5 with FD flags and carries 64 data bytes.
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var id uint32 = f.ID
	if f.Extended {
		id |= canEffFlag
	}
	if f.RTR {
		id |= canRtrFlag
	}
	if f.FD {
		buf := make([]byte, 72)
		binary.LittleEndian.PutUint32(buf[0:4], id)
		buf[4] = f.Len
		copy(buf[8:72], f.Data[:])
		return buf, nil
	}
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	copy(buf[8:16], f.Data[:8])
	return buf, nil
}

// UnmarshalBinary decodes a frame from either SocketCAN layout; the FD
// variant is recognized by buffer length.
func (f *Frame) UnmarshalBinary(data []byte) error {
	switch {
	case len(data) >= 72:
		f.FD = true
	case len(data) >= 16:
		f.FD = false
	default:
		return fmt.Errorf("can: need 16 or 72 bytes, got %d", len(data))
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	f.Extended = id&canEffFlag != 0
	f.RTR = !f.FD && id&canRtrFlag != 0
	if f.Extended {
		f.ID = id & canEffMask
	} else {
		f.ID = id & canStdMask
	}
	f.Len = data[4]
	f.Data = [64]byte{}
	if f.FD {
		copy(f.Data[:], data[8:72])
	} else {
		copy(f.Data[:8], data[8:16])
	}
	return f.Validate()
}
