//go:build linux

package can

import (
	"errors"
	"net"
	"os"
	"syscall"
	"unsafe"
)

// socketCAN implements Bus over Linux SocketCAN using raw syscalls only.
type socketCAN struct {
	fd     int
	file   *os.File
	closed chan struct{}
}

// SocketCAN constants not exposed by the syscall package.
const (
	afCAN         = 29
	canRaw        = 1
	solCANRaw     = 101
	canRawFDFrame = 5 // CAN_RAW_FD_FRAMES
)

// DialSocketCAN opens a raw CAN socket bound to the given interface name
// (e.g., "can0"). FD frame reception is enabled; sending FD frames requires
// an FD-capable interface with an appropriate MTU.
func DialSocketCAN(iface string) (Bus, error) {
	fd, err := syscall.Socket(afCAN, syscall.SOCK_RAW, canRaw)
	if err != nil {
		return nil, err
	}

	// Allow canfd_frame on this socket; harmless on classic-only interfaces.
	one := int32(1)
	_, _, e := syscall.Syscall6(syscall.SYS_SETSOCKOPT, uintptr(fd), solCANRaw, canRawFDFrame,
		uintptr(unsafe.Pointer(&one)), unsafe.Sizeof(one), 0)
	if e != 0 {
		syscall.Close(fd)
		return nil, e
	}

	netIf, err := net.InterfaceByName(iface)
	if err != nil {
		syscall.Close(fd)
		return nil, err
	}

	// Bind to interface.
	// struct sockaddr_can { sa_family_t can_family; int can_ifindex; union { ... } addr; };
	type sockaddrCAN struct {
		Family  uint16
		_pad    uint16
		Ifindex int32
		Addr    [8]byte
	}
	sa := sockaddrCAN{Family: afCAN, Ifindex: int32(netIf.Index)}
	_, _, e = syscall.Syscall(syscall.SYS_BIND, uintptr(fd), uintptr(unsafe.Pointer(&sa)), unsafe.Sizeof(sa))
	if e != 0 {
		syscall.Close(fd)
		return nil, e
	}

	if err := syscall.SetNonblock(fd, true); err != nil {
		syscall.Close(fd)
		return nil, err
	}

	f := os.NewFile(uintptr(fd), "socketcan")
	return &socketCAN{fd: fd, file: f, closed: make(chan struct{})}, nil
}

func (s *socketCAN) Close() error {
	select {
	case <-s.closed:
		return nil
	default:
	}
	close(s.closed)
	// Closing file also closes the fd.
	return s.file.Close()
}

// Send writes one frame using the Linux can_frame/canfd_frame binary layout.
func (s *socketCAN) Send(frame Frame) error {
	buf, err := frame.MarshalBinary()
	if err != nil {
		return err
	}
	for {
		n, werr := syscall.Write(s.fd, buf)
		if werr == nil {
			if n != len(buf) {
				return errors.New("can: short write")
			}
			return nil
		}
		if werr == syscall.EAGAIN || werr == syscall.EWOULDBLOCK {
			// Busy-wait with small yield.
			syscall.Select(0, nil, nil, nil, &syscall.Timeval{Usec: 1000})
			continue
		}
		return werr
	}
}

// Receive reads one frame, classical or FD depending on the read size.
func (s *socketCAN) Receive() (Frame, error) {
	var f Frame
	buf := make([]byte, 72)
	for {
		n, rerr := syscall.Read(s.fd, buf)
		if rerr == nil {
			if n != 16 && n != 72 {
				return Frame{}, errors.New("can: short read")
			}
			if err := f.UnmarshalBinary(buf[:n]); err != nil {
				return Frame{}, err
			}
			return f, nil
		}
		if rerr == syscall.EAGAIN || rerr == syscall.EWOULDBLOCK {
			syscall.Select(0, nil, nil, nil, &syscall.Timeval{Usec: 1000})
			continue
		}
		return Frame{}, rerr
	}
}
