package sim

import (
	"github.com/conveyor-sim/conveyor-sim/sim/conveyor"
	"github.com/conveyor-sim/conveyor-sim/sim/fault"
	"github.com/conveyor-sim/conveyor-sim/sim/motor"
	"github.com/conveyor-sim/conveyor-sim/sim/supply"
	"github.com/conveyor-sim/conveyor-sim/sim/vfd"
)

// Segment is one drive + motor pair and the stretch of belt it moves.
type Segment struct {
	Index  int
	StartM float64
	EndM   float64

	Vfd    *vfd.Drive
	Motor  *motor.Motor
	Ledger *fault.Ledger

	BaseLoadTorque float64 // Nm before packages

	LastBeltSpeed float64 // m/s at the end of the previous tick
	PackageMass   float64 // kg on [StartM, EndM) this tick
	PackageTorque float64 // Nm the packages reflect onto the shaft this tick
}

// Running reports whether the segment's ledger has no active trip.
func (seg *Segment) Running() bool {
	return seg.Ledger.Running()
}

// Trip returns the segment's active trip code.
func (seg *Segment) Trip() fault.Code {
	return seg.Ledger.ActiveTrip()
}

// BeltSpeed is the current belt speed under this segment.
func (seg *Segment) BeltSpeed(mech conveyor.Mechanics) float64 {
	return mech.BeltSpeed(seg.Motor.State.SpeedRpm)
}

// step runs the per-segment chain: drive control, load coupling, motor, drive thermal/fault.
func (seg *Segment) step(dt float64, grid supply.Outputs, mech conveyor.Mechanics, line *conveyor.Line) {
	d := seg.Vfd
	m := seg.Motor

	d.Inputs.SupplyVoltageLL = grid.LineLineVoltage
	d.Inputs.SupplyFrequency = grid.Frequency
	d.Step(dt)

	m.Inputs.DriveFrequencyCmd = d.Outputs.OutputFrequency
	m.Inputs.DriveVoltageCmd = d.Outputs.OutputVoltage

	belt := seg.BeltSpeed(mech)
	accel := (belt - seg.LastBeltSpeed) / dt
	seg.LastBeltSpeed = belt
	seg.PackageMass = line.MassBetween(seg.StartM, seg.EndM)
	seg.PackageTorque = mech.LoadTorque(seg.PackageMass, accel)
	m.Inputs.LoadTorque = seg.BaseLoadTorque + seg.PackageTorque

	m.Step(dt)

	d.Inputs.MotorCurrentFeedback = m.Outputs.PhaseCurrent
	d.StepThermal(dt)
}
