// Package vfd models a variable-frequency drive under V/Hz control.
//
// A drive is stepped in two phases per tick. Step (control) rebuilds the DC
// bus from the supply, ramps the output frequency and computes the output
// voltage. StepThermal runs after the motor has produced fresh current
// feedback: it integrates the heatsink temperature and evaluates the trip
// limits in a fixed order.
package vfd

import (
	"fmt"
	"math"

	"github.com/conveyor-sim/conveyor-sim/sim/fault"
	"github.com/conveyor-sim/conveyor-sim/sim/internal/num"
)

const (
	// heatsinkCoolingWPerC is the heatsink-to-ambient conductance used by the RC model.
	heatsinkCoolingWPerC = 25.0
	// conductionLossFactor scales V*I into heatsink watts.
	conductionLossFactor = 0.02
	// Bus levels forced by the drive-local sag/surge flags, p.u. of rated voltage.
	localSagPU   = 0.5
	localSurgePU = 1.25
	// minVoltsPerHzFrequency keeps the V/Hz command finite near standstill.
	minVoltsPerHzFrequency = 0.1
)

// Settings are fixed for the lifetime of a drive.
type Settings struct {
	RatedVoltageLL      float64 `yaml:"rated_voltage_ll"`      // V rms line-line
	RatedFrequency      float64 `yaml:"rated_frequency"`       // Hz
	MaxCurrent          float64 `yaml:"max_current"`           // A, trip threshold is a multiple of this
	Accel               float64 `yaml:"accel"`                 // Hz/s
	Decel               float64 `yaml:"decel"`                 // Hz/s
	VoltBoost           float64 `yaml:"volt_boost"`            // p.u. of rated voltage added at every speed
	ThermalTimeConstant float64 `yaml:"thermal_time_constant"` // s
	MaxHeatsinkTemp     float64 `yaml:"max_heatsink_temp"`     // °C
	AmbientTemp         float64 `yaml:"ambient_temp"`          // °C
	OverCurrentMultiple float64 `yaml:"over_current_multiple"`
	UnderVoltPUNomDC    float64 `yaml:"under_volt_pu_nom_dc"` // trip below this fraction of nominal Vdc
	OverVoltPUNomDC     float64 `yaml:"over_volt_pu_nom_dc"`  // trip above this fraction of nominal Vdc

	// PhaseLossRecheckPeriod selects how a held phase-loss flag is detected.
	// 0 checks on every thermal evaluation. A positive period checks only when
	// simulated time crosses a multiple of it.
	PhaseLossRecheckPeriod float64 `yaml:"phase_loss_recheck_period"`
}

// DefaultSettings returns a 400 V / 50 Hz drive rated for 30 A.
func DefaultSettings() Settings {
	return Settings{
		RatedVoltageLL:      400.0,
		RatedFrequency:      50.0,
		MaxCurrent:          30.0,
		Accel:               10.0,
		Decel:               10.0,
		VoltBoost:           0.07,
		ThermalTimeConstant: 40.0,
		MaxHeatsinkTemp:     85.0,
		AmbientTemp:         25.0,
		OverCurrentMultiple: 1.6,
		UnderVoltPUNomDC:    0.55,
		OverVoltPUNomDC:     1.20,
	}
}

// Validate checks the settings for values the model cannot run with.
func (s Settings) Validate() error {
	if s.RatedVoltageLL <= 0 {
		return fmt.Errorf("vfd rated_voltage_ll must be positive, got %g", s.RatedVoltageLL)
	}
	if s.RatedFrequency <= 0 {
		return fmt.Errorf("vfd rated_frequency must be positive, got %g", s.RatedFrequency)
	}
	if s.Accel <= 0 || s.Decel <= 0 {
		return fmt.Errorf("vfd accel and decel must be positive, got %g/%g", s.Accel, s.Decel)
	}
	if s.ThermalTimeConstant <= 0 {
		return fmt.Errorf("vfd thermal_time_constant must be positive, got %g", s.ThermalTimeConstant)
	}
	if s.MaxCurrent <= 0 || s.OverCurrentMultiple <= 0 {
		return fmt.Errorf("vfd max_current and over_current_multiple must be positive")
	}
	if s.UnderVoltPUNomDC >= s.OverVoltPUNomDC {
		return fmt.Errorf("vfd under_volt_pu_nom_dc (%g) must be below over_volt_pu_nom_dc (%g)",
			s.UnderVoltPUNomDC, s.OverVoltPUNomDC)
	}
	if s.VoltBoost < 0 || s.PhaseLossRecheckPeriod < 0 {
		return fmt.Errorf("vfd volt_boost and phase_loss_recheck_period must be non-negative")
	}
	return nil
}

// State holds the setpoint, internal dynamics and anomaly flags.
type State struct {
	TargetFrequency   float64 // Hz
	BusVoltage        float64 // Vdc
	HeatsinkTemp      float64 // °C
	NominalBusVoltage float64 // Vdc

	// Drive-local sag/surge, kept for scenarios written against a bare drive.
	UnderVoltage bool
	OverVoltage  bool
	PhaseLoss    bool
	GroundFault  bool
}

// Inputs are written by the plant wiring each tick.
type Inputs struct {
	SupplyVoltageLL      float64 // V rms
	SupplyFrequency      float64 // Hz
	MotorCurrentFeedback float64 // A rms
}

// Outputs are consumed by the motor.
type Outputs struct {
	OutputFrequency float64 // Hz
	OutputVoltage   float64 // V rms
}

// Guard is the trip latch a drive reports to. *fault.Ledger implements it.
type Guard interface {
	Running() bool
	Trip(code fault.Code) bool
}

// Drive is one VFD.
type Drive struct {
	Settings Settings
	State    State
	Inputs   Inputs
	Outputs  Outputs

	guard Guard
	clock fault.TimeTeller

	// lastCheckIndex is the recheck-period index seen at the previous thermal step.
	lastCheckIndex int64
}

// New returns a stopped drive with a nominal DC bus and the heatsink at ambient.
func New(settings Settings, guard Guard, clock fault.TimeTeller) *Drive {
	vdc := math.Sqrt2 * settings.RatedVoltageLL
	return &Drive{
		Settings: settings,
		State: State{
			BusVoltage:        vdc,
			NominalBusVoltage: vdc,
			HeatsinkTemp:      settings.AmbientTemp,
		},
		guard: guard,
		clock: clock,
	}
}

// Guard returns the latch this drive trips.
func (d *Drive) Guard() Guard {
	return d.guard
}

// Step runs the control phase for one tick of dt seconds.
func (d *Drive) Step(dt float64) {
	d.State.BusVoltage = math.Sqrt2 * d.busSourceVoltage()

	if d.State.GroundFault {
		d.guard.Trip(fault.GroundFault)
	}

	if !d.guard.Running() {
		// Coast: no output, but the heatsink keeps cooling.
		d.thermalStep(dt, 0)
		d.Outputs.OutputFrequency = 0
		d.Outputs.OutputVoltage = 0
		d.Inputs.MotorCurrentFeedback = 0
		return
	}

	rate := d.Settings.Accel
	if d.State.TargetFrequency < d.Outputs.OutputFrequency {
		rate = d.Settings.Decel
	}
	d.Outputs.OutputFrequency = num.Slew(d.Outputs.OutputFrequency, d.State.TargetFrequency, rate*dt)
	d.Outputs.OutputVoltage = d.VoltageCommand(d.Outputs.OutputFrequency)
}

// StepThermal runs the thermal and fault phase. Call it after the motor has
// written MotorCurrentFeedback for this tick.
func (d *Drive) StepThermal(dt float64) {
	loss := conductionLossFactor * d.Outputs.OutputVoltage * math.Max(0, d.Inputs.MotorCurrentFeedback)
	d.thermalStep(dt, loss)
	d.detectTrips()
}

// VoltageCommand is the V/Hz law with a flat low-speed boost, capped at rated voltage.
func (d *Drive) VoltageCommand(freq float64) float64 {
	rated := d.Settings.RatedVoltageLL
	f := math.Max(minVoltsPerHzFrequency, freq)
	v := rated*f/math.Max(1.0, d.Settings.RatedFrequency) + d.Settings.VoltBoost*rated
	return math.Min(rated, v)
}

// busSourceVoltage picks the line-line voltage rectified onto the DC bus.
func (d *Drive) busSourceVoltage() float64 {
	v := d.Inputs.SupplyVoltageLL
	if v <= 0 {
		v = d.Settings.RatedVoltageLL
	}
	if d.State.UnderVoltage {
		v = d.Settings.RatedVoltageLL * localSagPU
	} else if d.State.OverVoltage {
		v = d.Settings.RatedVoltageLL * localSurgePU
	}
	return v
}

func (d *Drive) thermalStep(dt, lossW float64) {
	t := d.State.HeatsinkTemp
	dT := (lossW/heatsinkCoolingWPerC - (t-d.Settings.AmbientTemp)/math.Max(1e-6, d.Settings.ThermalTimeConstant)) * dt
	d.State.HeatsinkTemp = t + dT
}

// detectTrips evaluates the limits in priority order. The guard keeps only
// the first one while tripped.
func (d *Drive) detectTrips() {
	nominalDC := math.Sqrt2 * d.Settings.RatedVoltageLL
	phaseDue := d.phaseLossCheckDue()

	if d.State.BusVoltage < d.Settings.UnderVoltPUNomDC*nominalDC {
		d.guard.Trip(fault.UnderVoltage)
	}
	if d.State.BusVoltage > d.Settings.OverVoltPUNomDC*nominalDC {
		d.guard.Trip(fault.OverVoltage)
	}
	if d.Inputs.MotorCurrentFeedback > d.Settings.OverCurrentMultiple*d.Settings.MaxCurrent {
		d.guard.Trip(fault.OverCurrent)
	}
	if d.State.HeatsinkTemp > d.Settings.MaxHeatsinkTemp {
		d.guard.Trip(fault.OverTemp)
	}
	if d.State.PhaseLoss && phaseDue {
		d.guard.Trip(fault.PhaseLoss)
	}
}

// phaseLossCheckDue reports whether a held phase-loss flag is evaluated this
// tick. The period index is tracked on every call so a flag raised mid-period
// waits for the next boundary.
func (d *Drive) phaseLossCheckDue() bool {
	period := d.Settings.PhaseLossRecheckPeriod
	if period <= 0 {
		return true
	}
	idx := int64(math.Floor(d.clock.CurrentTime()/period + 1e-9))
	due := idx != d.lastCheckIndex
	d.lastCheckIndex = idx
	return due
}
