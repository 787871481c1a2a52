// Package can provides the CAN frame and bus primitives the Cyphal
// transport layer is built on.
//
// It includes:
//   - A core Frame type covering classical CAN and CAN FD, with
//     validation and SocketCAN binary marshaling helpers
//   - An in-memory loopback bus for tests and simulations
//   - A frame multiplexer for filtered fan-out to multiple consumers
//   - A logging decorator built on zerolog
//   - A Linux SocketCAN driver (linux-only) via raw syscalls
package can
