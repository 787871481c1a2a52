//go:build !linux

package can

import "errors"

// ErrSocketCANUnsupported is returned on platforms without SocketCAN.
var ErrSocketCANUnsupported = errors.New("can: socketcan is only available on linux")

// DialSocketCAN is unavailable outside Linux.
func DialSocketCAN(iface string) (Bus, error) {
	return nil, ErrSocketCANUnsupported
}
