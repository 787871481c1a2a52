package dsdl

// Marshaler encodes a typed Cyphal entity into a DSDL byte stream.
type Marshaler interface {
	MarshalDSDL(e *Encoder) error
}

// Unmarshaler decodes a typed Cyphal entity from a DSDL byte stream.
type Unmarshaler interface {
	UnmarshalDSDL(d *Decoder) error
}

// Codec combines marshaling and unmarshaling of DSDL payloads.
type Codec interface {
	Marshaler
	Unmarshaler
}

// Message is a typed data-type wrapper: a marshaler that knows its own
// serialization buffer size.
type Message interface {
	Marshaler
	MaxSerializedSize() int
}

// Marshal serializes m into a fresh buffer of at most maxSize bytes.
func Marshal(m Marshaler, maxSize int) ([]byte, error) {
	e := NewEncoder(maxSize)
	if err := m.MarshalDSDL(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// Unmarshal deserializes data into u. Truncated buffers decode with
// implicit zero extension.
func Unmarshal(data []byte, u Unmarshaler) error {
	return u.UnmarshalDSDL(NewDecoder(data))
}
