// Package siunit provides typed wrappers for the uavcan.si.unit DSDL
// namespace (the subset this module ships).
package siunit

import (
	"github.com/edu-rossrobotics/cyphal/dsdl"
)

// DurationWideScalar is uavcan.si.unit.duration.WideScalar.1.0.
type DurationWideScalar struct {
	Second float64
}

func (DurationWideScalar) MaxSerializedSize() int { return 8 }

func (v DurationWideScalar) MarshalDSDL(e *dsdl.Encoder) error {
	return e.WriteFloat64(v.Second)
}

func (v *DurationWideScalar) UnmarshalDSDL(d *dsdl.Decoder) error {
	v.Second = d.ReadFloat64()
	return nil
}

// PressureScalar is uavcan.si.unit.pressure.Scalar.1.0.
type PressureScalar struct {
	Pascal float32
}

func (PressureScalar) MaxSerializedSize() int { return 4 }

func (v PressureScalar) MarshalDSDL(e *dsdl.Encoder) error {
	return e.WriteFloat32(v.Pascal)
}

func (v *PressureScalar) UnmarshalDSDL(d *dsdl.Decoder) error {
	v.Pascal = d.ReadFloat32()
	return nil
}

// TemperatureScalar is uavcan.si.unit.temperature.Scalar.1.0.
type TemperatureScalar struct {
	Kelvin float32
}

func (TemperatureScalar) MaxSerializedSize() int { return 4 }

func (v TemperatureScalar) MarshalDSDL(e *dsdl.Encoder) error {
	return e.WriteFloat32(v.Kelvin)
}

func (v *TemperatureScalar) UnmarshalDSDL(d *dsdl.Decoder) error {
	v.Kelvin = d.ReadFloat32()
	return nil
}
