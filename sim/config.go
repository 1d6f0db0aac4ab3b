package sim

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/conveyor-sim/conveyor-sim/sim/conveyor"
	"github.com/conveyor-sim/conveyor-sim/sim/motor"
	"github.com/conveyor-sim/conveyor-sim/sim/supply"
	"github.com/conveyor-sim/conveyor-sim/sim/trace"
	"github.com/conveyor-sim/conveyor-sim/sim/vfd"
)

// ErrNoProgress is returned when the run parameters cannot advance simulated time.
var ErrNoProgress = errors.New("simulation cannot make forward progress")

// TripScope selects how many trip ledgers guard the drives.
type TripScope string

const (
	// TripScopeGlobal shares one ledger across every segment: any trip stops the line.
	TripScopeGlobal TripScope = "global"
	// TripScopeSegment gives each segment its own ledger.
	TripScopeSegment TripScope = "segment"
)

// ValidTripScopes is the set of recognized trip scope names.
var ValidTripScopes = map[TripScope]bool{"": true, TripScopeGlobal: true, TripScopeSegment: true}

// RunConfig groups the timing parameters of a run.
type RunConfig struct {
	Duration     float64 `yaml:"duration"`      // simulated seconds
	Dt           float64 `yaml:"dt"`            // fixed step, s
	SamplePeriod float64 `yaml:"sample_period"` // s between reported samples, 0 = every tick
	SpeedFactor  float64 `yaml:"speed_factor"`  // simulated s per wall s, 0 = as fast as possible
	StartDelay   float64 `yaml:"start_delay"`   // wall s to wait before the first tick
	Seed         int64   `yaml:"seed"`
	TraceLevel   string  `yaml:"trace_level"` // "none" or "samples"
}

// Validate checks that the run can advance. Step and duration problems wrap ErrNoProgress.
func (c RunConfig) Validate() error {
	if math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) || c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be a positive finite number, got %g", ErrNoProgress, c.Dt)
	}
	if math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) || c.Duration < 0 {
		return fmt.Errorf("%w: duration must be a non-negative finite number, got %g", ErrNoProgress, c.Duration)
	}
	if c.SamplePeriod < 0 {
		return fmt.Errorf("sample_period must be non-negative, got %g", c.SamplePeriod)
	}
	if c.SpeedFactor < 0 || c.StartDelay < 0 {
		return fmt.Errorf("speed_factor and start_delay must be non-negative")
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}

// ConveyorConfig describes the belt and its segment layout.
type ConveyorConfig struct {
	LengthM         float64                `yaml:"length_m"`
	Segments        int                    `yaml:"segments"`
	BaseLoadTorque  float64                `yaml:"base_load_torque"` // Nm per segment without packages
	TargetFrequency float64                `yaml:"target_frequency"` // Hz, initial drive setpoint
	Mechanics       conveyor.Mechanics     `yaml:"mechanics"`
	Spawn           conveyor.SpawnSettings `yaml:"spawn"`
}

// Validate checks the layout, mechanics and arrival process.
func (c ConveyorConfig) Validate() error {
	if c.Segments <= 0 {
		return fmt.Errorf("conveyor segments must be positive, got %d", c.Segments)
	}
	if c.LengthM <= 0 {
		return fmt.Errorf("conveyor length_m must be positive, got %g", c.LengthM)
	}
	if c.TargetFrequency < 0 {
		return fmt.Errorf("conveyor target_frequency must be non-negative, got %g", c.TargetFrequency)
	}
	if err := c.Mechanics.Validate(); err != nil {
		return fmt.Errorf("conveyor mechanics: %w", err)
	}
	if err := c.Spawn.Validate(c.LengthM); err != nil {
		return fmt.Errorf("conveyor: %w", err)
	}
	return nil
}

// PlantConfig is everything needed to build a Simulator.
// Every segment gets identical drive and motor settings.
type PlantConfig struct {
	Name      string          `yaml:"name"`
	TripScope TripScope       `yaml:"trip_scope"`
	Supply    supply.Settings `yaml:"supply"`
	Vfd       vfd.Settings    `yaml:"vfd"`
	Motor     motor.Settings  `yaml:"motor"`
	Conveyor  ConveyorConfig  `yaml:"conveyor"`
	Run       RunConfig       `yaml:"run"`
}

// Validate checks every section and wraps the first error with its section name.
func (c PlantConfig) Validate() error {
	if !ValidTripScopes[c.TripScope] {
		return fmt.Errorf("unknown trip scope %q", c.TripScope)
	}
	if err := c.Supply.Validate(); err != nil {
		return fmt.Errorf("supply: %w", err)
	}
	if err := c.Vfd.Validate(); err != nil {
		return fmt.Errorf("vfd: %w", err)
	}
	if err := c.Motor.Validate(); err != nil {
		return fmt.Errorf("motor: %w", err)
	}
	if err := c.Conveyor.Validate(); err != nil {
		return err
	}
	if err := c.Run.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// ConveyorPlantConfig is the five-segment, 50 m line with 4 kW drives at 30 Hz.
func ConveyorPlantConfig() PlantConfig {
	drive := vfd.DefaultSettings()
	drive.Accel = 15
	drive.Decel = 15
	drive.VoltBoost = 0.06

	m := motor.DefaultSettings()
	m.RatedPower = 4000
	m.Inertia = 0.15
	m.ViscFriction = 0.002
	m.CoulombFriction = 0.8
	m.TorqueMaxPU = 2.0
	m.Inom = 12
	m.JamExtraTorque = 150

	return PlantConfig{
		Name:      "conveyor",
		TripScope: TripScopeGlobal,
		Supply:    supply.DefaultSettings(),
		Vfd:       drive,
		Motor:     m,
		Conveyor: ConveyorConfig{
			LengthM:         50,
			Segments:        5,
			BaseLoadTorque:  3,
			TargetFrequency: 30,
			Mechanics:       conveyor.DefaultMechanics(),
			Spawn:           conveyor.DefaultSpawnSettings(),
		},
		Run: RunConfig{
			Duration:     600,
			Dt:           0.01,
			SamplePeriod: 0.5,
			SpeedFactor:  0.5,
			StartDelay:   2,
			TraceLevel:   string(trace.TraceLevelSamples),
		},
	}
}

// DrivePlantConfig is a single 7.5 kW drive on the supply with no packages, run at 50 Hz.
func DrivePlantConfig() PlantConfig {
	spawn := conveyor.DefaultSpawnSettings()
	spawn.Period = 0
	return PlantConfig{
		Name:      "drive",
		TripScope: TripScopeGlobal,
		Supply:    supply.DefaultSettings(),
		Vfd:       vfd.DefaultSettings(),
		Motor:     motor.DefaultSettings(),
		Conveyor: ConveyorConfig{
			LengthM:         10,
			Segments:        1,
			BaseLoadTorque:  5,
			TargetFrequency: 50,
			Mechanics:       conveyor.DefaultMechanics(),
			Spawn:           spawn,
		},
		Run: RunConfig{
			Duration:     30,
			Dt:           0.01,
			SamplePeriod: 0.5,
			TraceLevel:   string(trace.TraceLevelSamples),
		},
	}
}

var plantPresets = map[string]func() PlantConfig{
	"conveyor": ConveyorPlantConfig,
	"drive":    DrivePlantConfig,
}

// PlantPreset returns the named built-in plant.
func PlantPreset(name string) (PlantConfig, error) {
	f, ok := plantPresets[name]
	if !ok {
		return PlantConfig{}, fmt.Errorf("unknown plant preset %q; valid presets: %v", name, PlantPresetNames())
	}
	return f(), nil
}

// PlantPresetNames lists the built-in plants, sorted.
func PlantPresetNames() []string {
	names := make([]string, 0, len(plantPresets))
	for name := range plantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
