// Package cyphal provides a convenience layer over the Cyphal/CAN
// transport: a Node that owns the transmit/receive queues, subscription
// table and per-port transfer-ID counters, plus typed publish/subscribe
// helpers bound to the DSDL codecs under dsdl/.
//
// The transport codec handles single-frame transfers (classical CAN MTU 8
// or CAN FD MTU 64); frames belonging to multi-frame transfers are
// recognized and rejected.
package cyphal
