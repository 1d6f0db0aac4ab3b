// Package motor models an induction motor with a simplified torque-slip curve.
package motor

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/conveyor-sim/conveyor-sim/sim/internal/num"
)

const (
	minCommandFrequency = 0.1  // Hz
	lockedRotorSyncRpm  = 1e-3 // below this the rotor is treated as locked
	maxVoltsPerHzPU     = 1.2
	minVoltsPerHzMargin = 0.2
	minInertia          = 1e-6 // kg*m^2
	minRatedVoltage     = 10.0 // V

	phaseLossCurrentGain = 1.7
	phaseLossTorqueGain  = 0.6
)

// Settings are fixed for the lifetime of a motor.
type Settings struct {
	RatedVoltageLL     float64 `yaml:"rated_voltage_ll"` // V rms
	RatedFrequency     float64 `yaml:"rated_frequency"`  // Hz
	PolePairs          int     `yaml:"pole_pairs"`
	RatedPower         float64 `yaml:"rated_power"`          // W
	RatedSpeedRpm      float64 `yaml:"rated_speed_rpm"`      // rpm
	Inertia            float64 `yaml:"inertia"`              // kg*m^2, motor plus reflected load
	ViscFriction       float64 `yaml:"visc_friction"`        // Nm per rpm
	CoulombFriction    float64 `yaml:"coulomb_friction"`     // Nm
	SlipNom            float64 `yaml:"slip_nom"`             // slip at rated torque
	TorqueMaxPU        float64 `yaml:"torque_max_pu"`        // multiple of rated torque
	Inom               float64 `yaml:"inom"`                 // A rms
	JamExtraTorque     float64 `yaml:"jam_extra_torque"`     // Nm added while jammed
	BearingExtraTorque float64 `yaml:"bearing_extra_torque"` // Nm added while bearings are worn
	SensorNoiseRpm     float64 `yaml:"sensor_noise_rpm"`     // peak jitter on reported speeds
}

// DefaultSettings returns a 7.5 kW, 4-pole, 1440 rpm machine.
func DefaultSettings() Settings {
	return Settings{
		RatedVoltageLL:     400.0,
		RatedFrequency:     50.0,
		PolePairs:          2,
		RatedPower:         7500.0,
		RatedSpeedRpm:      1440.0,
		Inertia:            0.20,
		ViscFriction:       0.003,
		CoulombFriction:    1.0,
		SlipNom:            0.03,
		TorqueMaxPU:        2.2,
		Inom:               15.0,
		JamExtraTorque:     80.0,
		BearingExtraTorque: 5.0,
		SensorNoiseRpm:     3.0,
	}
}

// Validate checks the settings for values the model cannot run with.
func (s Settings) Validate() error {
	if s.PolePairs <= 0 {
		return fmt.Errorf("motor pole_pairs must be positive, got %d", s.PolePairs)
	}
	if s.RatedPower <= 0 || s.RatedSpeedRpm <= 0 {
		return fmt.Errorf("motor rated_power and rated_speed_rpm must be positive, got %g/%g",
			s.RatedPower, s.RatedSpeedRpm)
	}
	if s.RatedVoltageLL <= 0 || s.RatedFrequency <= 0 {
		return fmt.Errorf("motor rated_voltage_ll and rated_frequency must be positive")
	}
	if s.SlipNom <= 0 {
		return fmt.Errorf("motor slip_nom must be positive, got %g", s.SlipNom)
	}
	if s.TorqueMaxPU <= 0 || s.Inom <= 0 {
		return fmt.Errorf("motor torque_max_pu and inom must be positive")
	}
	if s.Inertia < 0 || s.ViscFriction < 0 || s.CoulombFriction < 0 {
		return fmt.Errorf("motor inertia and friction terms must be non-negative")
	}
	if s.JamExtraTorque < 0 || s.BearingExtraTorque < 0 || s.SensorNoiseRpm < 0 {
		return fmt.Errorf("motor anomaly torques and sensor_noise_rpm must be non-negative")
	}
	return nil
}

// RatedTorque is P / omega at rated speed.
func (s Settings) RatedTorque() float64 {
	return s.RatedPower / (2 * math.Pi * s.RatedSpeedRpm / 60)
}

// Inputs are written by the plant wiring each tick.
type Inputs struct {
	DriveFrequencyCmd float64 // Hz
	DriveVoltageCmd   float64 // V rms line-line
	// LoadTorque is the external shaft load for this tick: segment base load
	// plus whatever the belt couples in.
	LoadTorque float64 // Nm
}

// State holds the rotor dynamics and anomaly flags.
type State struct {
	SpeedRpm     float64
	ElectTorque  float64 // Nm, as delivered after any phase-loss derate
	RatedTorque  float64 // Nm
	RatedVoltage float64 // V rms line-line

	PhaseLoss   bool
	LoadJam     bool
	BearingWear bool
	SensorNoise bool
}

// Outputs are read by the drive and by observers.
type Outputs struct {
	PhaseCurrent     float64 // A rms
	ReportedSpeedRpm float64
	ReportedSyncRpm  float64
}

// Motor is one induction machine.
type Motor struct {
	Settings Settings
	State    State
	Inputs   Inputs
	Outputs  Outputs

	rng *rand.Rand
}

// New returns a motor at standstill. rng feeds the sensor-noise anomaly and
// may be nil, in which case reported speeds are never perturbed.
func New(settings Settings, rng *rand.Rand) *Motor {
	return &Motor{
		Settings: settings,
		State: State{
			RatedTorque:  settings.RatedTorque(),
			RatedVoltage: settings.RatedVoltageLL,
		},
		rng: rng,
	}
}

// Step advances the rotor by dt seconds.
func (m *Motor) Step(dt float64) {
	s := &m.Settings
	st := &m.State

	f := math.Max(minCommandFrequency, math.Abs(m.Inputs.DriveFrequencyCmd))
	syncRpm := 60 * f / float64(s.PolePairs)

	slip := 1.0
	if syncRpm > lockedRotorSyncRpm {
		slip = math.Max(0, (syncRpm-st.SpeedRpm)/syncRpm)
	}

	vfPU := (m.Inputs.DriveVoltageCmd / math.Max(minRatedVoltage, st.RatedVoltage)) /
		(f / math.Max(1, s.RatedFrequency))
	vfPU = num.Clamp(vfPU, 0, maxVoltsPerHzPU)

	torqueLimit := s.TorqueMaxPU * st.RatedTorque
	te := vfPU * vfPU * (slip / (slip + s.SlipNom)) * st.RatedTorque
	te = num.Clamp(te, -torqueLimit, torqueLimit)

	load := m.LoadTorque()
	omegaDot := (te - load) / math.Max(minInertia, s.Inertia) // rad/s^2
	st.SpeedRpm += omegaDot * 60 / (2 * math.Pi) * dt
	if st.SpeedRpm < 0 && m.Inputs.DriveFrequencyCmd >= 0 {
		st.SpeedRpm = 0
	}

	current := math.Abs(te) / math.Max(1e-3, st.RatedTorque) *
		(1 / math.Max(minVoltsPerHzMargin, vfPU)) * s.Inom

	if st.PhaseLoss {
		current *= phaseLossCurrentGain
		te *= phaseLossTorqueGain
	}

	st.ElectTorque = te
	m.Outputs.PhaseCurrent = current
	m.Outputs.ReportedSpeedRpm = st.SpeedRpm
	m.Outputs.ReportedSyncRpm = syncRpm
	if st.SensorNoise && m.rng != nil && s.SensorNoiseRpm > 0 {
		m.Outputs.ReportedSpeedRpm += m.jitter()
		m.Outputs.ReportedSyncRpm += m.jitter()
	}
}

// LoadTorque is the total opposing torque at the current speed.
func (m *Motor) LoadTorque() float64 {
	s := &m.Settings
	load := m.Inputs.LoadTorque + s.ViscFriction*math.Abs(m.State.SpeedRpm) + s.CoulombFriction*num.Sign(m.State.SpeedRpm)
	if m.State.LoadJam {
		load += s.JamExtraTorque
	}
	if m.State.BearingWear {
		load += s.BearingExtraTorque
	}
	return load
}

func (m *Motor) jitter() float64 {
	return (2*m.rng.Float64() - 1) * m.Settings.SensorNoiseRpm
}
