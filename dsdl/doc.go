// Package dsdl implements the bit-level serialization rules used by
// Cyphal data types: little-endian byte order, bits packed least
// significant first, composites aligned to byte boundaries.
//
// The typed wrapper packages under dsdl/ encode concrete data types
// against the Encoder/Decoder here, the same layout the upstream code
// generator emits for its fixed serialization routines.
package dsdl
