// Package conveyor holds the belt side of the plant: packages riding on a
// segmented belt, the arrival process that places them, and the mechanics
// that reflect their load back onto each segment's motor shaft.
package conveyor

import (
	"fmt"
	"math"
)

// Mechanics describes the motor -> gearbox -> pulley -> belt train of one segment.
type Mechanics struct {
	PulleyRadiusM  float64 `yaml:"pulley_radius_m"`
	GearRatio      float64 `yaml:"gear_ratio"`      // motor:drum speed ratio
	MechEfficiency float64 `yaml:"mech_efficiency"` // motor -> belt, (0, 1]
	MuRoll         float64 `yaml:"mu_roll"`         // rolling resistance coefficient
	Gravity        float64 `yaml:"gravity"`         // m/s^2
}

// DefaultMechanics is a 300 mm drum behind a 12:1 gearbox.
func DefaultMechanics() Mechanics {
	return Mechanics{
		PulleyRadiusM:  0.15,
		GearRatio:      12.0,
		MechEfficiency: 0.9,
		MuRoll:         0.03,
		Gravity:        9.81,
	}
}

// Validate checks the drive train for values that would divide by zero.
func (m Mechanics) Validate() error {
	if m.PulleyRadiusM <= 0 {
		return fmt.Errorf("pulley_radius_m must be positive, got %g", m.PulleyRadiusM)
	}
	if m.GearRatio <= 0 {
		return fmt.Errorf("gear_ratio must be positive, got %g", m.GearRatio)
	}
	if m.MechEfficiency <= 0 || m.MechEfficiency > 1 {
		return fmt.Errorf("mech_efficiency must be in (0, 1], got %g", m.MechEfficiency)
	}
	if m.MuRoll < 0 || m.Gravity < 0 {
		return fmt.Errorf("mu_roll and gravity must be non-negative")
	}
	return nil
}

// BeltSpeed converts motor shaft speed to belt speed in m/s.
func (m Mechanics) BeltSpeed(rpm float64) float64 {
	return 2 * math.Pi * rpm / 60 * (m.PulleyRadiusM / m.GearRatio)
}

// LoadTorque is the shaft torque needed to roll massKg along the belt and
// accelerate it at accel m/s^2.
func (m Mechanics) LoadTorque(massKg, accel float64) float64 {
	force := massKg*m.Gravity*m.MuRoll + massKg*accel
	return force * m.PulleyRadiusM / (m.GearRatio * m.MechEfficiency)
}
