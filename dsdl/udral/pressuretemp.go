package udral

import (
	"github.com/edu-rossrobotics/cyphal/dsdl"
)

// PressureTempVarTsMaxSerializedSize is the serialization buffer size of
// reg.udral.physics.thermodynamics.PressureTempVarTs.0.1.
const PressureTempVarTsMaxSerializedSize = 21

// PressureTempVarTs is reg.udral.physics.thermodynamics.PressureTempVarTs.0.1:
// a timestamped pressure/temperature sample with its covariance.
type PressureTempVarTs struct {
	// Timestamp is the synchronized network time of the sample in
	// microseconds (56 bits on the wire); zero means unknown.
	Timestamp uint64
	Pressure    float32 // pascal
	Temperature float32 // kelvin
	// CovarianceURT is the upper-right triangle of the covariance matrix
	// [pascal^2, pascal*kelvin, kelvin^2], float16 on the wire.
	CovarianceURT [3]float32
}

func (PressureTempVarTs) MaxSerializedSize() int { return PressureTempVarTsMaxSerializedSize }

func (p PressureTempVarTs) MarshalDSDL(e *dsdl.Encoder) error {
	if err := e.WriteBits(p.Timestamp, 56); err != nil {
		return err
	}
	if err := e.WriteFloat32(p.Pressure); err != nil {
		return err
	}
	if err := e.WriteFloat32(p.Temperature); err != nil {
		return err
	}
	for _, v := range p.CovarianceURT {
		if err := e.WriteFloat16(v); err != nil {
			return err
		}
	}
	return nil
}

func (p *PressureTempVarTs) UnmarshalDSDL(d *dsdl.Decoder) error {
	p.Timestamp = d.ReadBits(56)
	p.Pressure = d.ReadFloat32()
	p.Temperature = d.ReadFloat32()
	for i := range p.CovarianceURT {
		p.CovarianceURT[i] = d.ReadFloat16()
	}
	return nil
}
