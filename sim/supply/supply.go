// Package supply models the three-phase grid feeding the drives.
//
// The supply never trips. It slews its line-line voltage and frequency toward
// a target that anomalies can override (sag, surge, frequency drift).
package supply

import (
	"fmt"

	"github.com/conveyor-sim/conveyor-sim/sim/internal/num"
)

// Settings are fixed for the lifetime of a supply.
type Settings struct {
	NominalVoltageLL  float64 `yaml:"nominal_voltage_ll"`  // V rms line-line
	NominalFrequency  float64 `yaml:"nominal_frequency"`   // Hz
	VoltageSlewRate   float64 `yaml:"voltage_slew_rate"`   // V/s
	FrequencySlewRate float64 `yaml:"frequency_slew_rate"` // Hz/s
	UnderVoltPU       float64 `yaml:"under_volt_pu"`       // sag level, p.u. of nominal
	OverVoltPU        float64 `yaml:"over_volt_pu"`        // surge level, p.u. of nominal
	DriftHz           float64 `yaml:"drift_hz"`            // offset applied while drifting
}

// DefaultSettings returns a 400 V / 50 Hz grid.
func DefaultSettings() Settings {
	return Settings{
		NominalVoltageLL:  400.0,
		NominalFrequency:  50.0,
		VoltageSlewRate:   1000.0,
		FrequencySlewRate: 10.0,
		UnderVoltPU:       0.50,
		OverVoltPU:        1.25,
		DriftHz:           0.0,
	}
}

// Validate checks that the settings describe a usable grid.
func (s Settings) Validate() error {
	if s.NominalVoltageLL <= 0 {
		return fmt.Errorf("supply nominal_voltage_ll must be positive, got %g", s.NominalVoltageLL)
	}
	if s.NominalFrequency <= 0 {
		return fmt.Errorf("supply nominal_frequency must be positive, got %g", s.NominalFrequency)
	}
	if s.VoltageSlewRate < 0 || s.FrequencySlewRate < 0 {
		return fmt.Errorf("supply slew rates must be non-negative")
	}
	if s.UnderVoltPU < 0 || s.OverVoltPU < 0 {
		return fmt.Errorf("supply anomaly levels must be non-negative")
	}
	return nil
}

// State holds operator setpoints and anomaly flags.
type State struct {
	TargetVoltageLL float64 // V, 0 = nominal
	TargetFrequency float64 // Hz, 0 = nominal

	UnderVoltage   bool
	OverVoltage    bool
	FrequencyDrift bool
}

// Outputs are the slewed grid values seen by the drives.
type Outputs struct {
	LineLineVoltage float64 // V rms
	Frequency       float64 // Hz
}

// Supply is a three-phase source.
type Supply struct {
	Settings Settings
	State    State
	Outputs  Outputs
}

// New returns a supply whose outputs and targets start at nominal.
func New(settings Settings) *Supply {
	return &Supply{
		Settings: settings,
		State: State{
			TargetVoltageLL: settings.NominalVoltageLL,
			TargetFrequency: settings.NominalFrequency,
		},
		Outputs: Outputs{
			LineLineVoltage: settings.NominalVoltageLL,
			Frequency:       settings.NominalFrequency,
		},
	}
}

// TargetVoltage resolves the voltage the supply is heading to.
// Undervoltage wins when both sag and surge flags are set.
func (s *Supply) TargetVoltage() float64 {
	v := s.Settings.NominalVoltageLL
	if s.State.TargetVoltageLL > 0 {
		v = s.State.TargetVoltageLL
	}
	if s.State.UnderVoltage {
		v = s.Settings.NominalVoltageLL * s.Settings.UnderVoltPU
	} else if s.State.OverVoltage {
		v = s.Settings.NominalVoltageLL * s.Settings.OverVoltPU
	}
	return v
}

// TargetFrequency resolves the frequency the supply is heading to.
func (s *Supply) TargetFrequency() float64 {
	f := s.Settings.NominalFrequency
	if s.State.TargetFrequency > 0 {
		f = s.State.TargetFrequency
	}
	if s.State.FrequencyDrift {
		f = s.Settings.NominalFrequency + s.Settings.DriftHz
	}
	return f
}

// Step advances the supply by dt seconds.
func (s *Supply) Step(dt float64) {
	s.Outputs.LineLineVoltage = num.Slew(s.Outputs.LineLineVoltage, s.TargetVoltage(), s.Settings.VoltageSlewRate*dt)
	s.Outputs.Frequency = num.Slew(s.Outputs.Frequency, s.TargetFrequency(), s.Settings.FrequencySlewRate*dt)
}
