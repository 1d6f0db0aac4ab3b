package sim

import (
	"fmt"

	"github.com/conveyor-sim/conveyor-sim/sim/internal/num"
	"github.com/conveyor-sim/conveyor-sim/sim/motor"
	"github.com/conveyor-sim/conveyor-sim/sim/supply"
	"github.com/conveyor-sim/conveyor-sim/sim/trace"
	"github.com/conveyor-sim/conveyor-sim/sim/vfd"
)

// gauge reads one observable scalar by channel name.
type gauge struct {
	name string
	get  func() float64
}

func supplyGauges(s *supply.Supply) []gauge {
	return []gauge{
		{"Supply.State.TargetVoltageLL", func() float64 { return s.State.TargetVoltageLL }},
		{"Supply.State.TargetFrequency", func() float64 { return s.State.TargetFrequency }},
		{"Supply.State.UnderVoltage", func() float64 { return num.Bool(s.State.UnderVoltage) }},
		{"Supply.State.OverVoltage", func() float64 { return num.Bool(s.State.OverVoltage) }},
		{"Supply.State.FrequencyDrift", func() float64 { return num.Bool(s.State.FrequencyDrift) }},
		{"Supply.Outputs.LineLineVoltage", func() float64 { return s.Outputs.LineLineVoltage }},
		{"Supply.Outputs.Frequency", func() float64 { return s.Outputs.Frequency }},
	}
}

func vfdGauges(prefix string, d *vfd.Drive) []gauge {
	return []gauge{
		{prefix + ".State.TargetFrequency", func() float64 { return d.State.TargetFrequency }},
		{prefix + ".State.BusVoltage", func() float64 { return d.State.BusVoltage }},
		{prefix + ".State.HeatsinkTemp", func() float64 { return d.State.HeatsinkTemp }},
		{prefix + ".State.NominalBusVoltage", func() float64 { return d.State.NominalBusVoltage }},
		{prefix + ".State.UnderVoltage", func() float64 { return num.Bool(d.State.UnderVoltage) }},
		{prefix + ".State.OverVoltage", func() float64 { return num.Bool(d.State.OverVoltage) }},
		{prefix + ".State.PhaseLoss", func() float64 { return num.Bool(d.State.PhaseLoss) }},
		{prefix + ".State.GroundFault", func() float64 { return num.Bool(d.State.GroundFault) }},
		{prefix + ".Inputs.SupplyVoltageLL", func() float64 { return d.Inputs.SupplyVoltageLL }},
		{prefix + ".Inputs.SupplyFrequency", func() float64 { return d.Inputs.SupplyFrequency }},
		{prefix + ".Inputs.MotorCurrentFeedback", func() float64 { return d.Inputs.MotorCurrentFeedback }},
		{prefix + ".Outputs.OutputFrequency", func() float64 { return d.Outputs.OutputFrequency }},
		{prefix + ".Outputs.OutputVoltage", func() float64 { return d.Outputs.OutputVoltage }},
	}
}

func motorGauges(prefix string, m *motor.Motor) []gauge {
	return []gauge{
		{prefix + ".State.SpeedRpm", func() float64 { return m.State.SpeedRpm }},
		{prefix + ".State.ElectTorque", func() float64 { return m.State.ElectTorque }},
		{prefix + ".State.RatedTorque", func() float64 { return m.State.RatedTorque }},
		{prefix + ".State.PhaseLoss", func() float64 { return num.Bool(m.State.PhaseLoss) }},
		{prefix + ".State.LoadJam", func() float64 { return num.Bool(m.State.LoadJam) }},
		{prefix + ".State.BearingWear", func() float64 { return num.Bool(m.State.BearingWear) }},
		{prefix + ".State.SensorNoise", func() float64 { return num.Bool(m.State.SensorNoise) }},
		{prefix + ".Inputs.DriveFrequencyCmd", func() float64 { return m.Inputs.DriveFrequencyCmd }},
		{prefix + ".Inputs.DriveVoltageCmd", func() float64 { return m.Inputs.DriveVoltageCmd }},
		{prefix + ".Inputs.LoadTorque", func() float64 { return m.Inputs.LoadTorque }},
		{prefix + ".Outputs.PhaseCurrent", func() float64 { return m.Outputs.PhaseCurrent }},
		{prefix + ".Outputs.ReportedSpeedRpm", func() float64 { return m.Outputs.ReportedSpeedRpm }},
		{prefix + ".Outputs.ReportedSyncRpm", func() float64 { return m.Outputs.ReportedSyncRpm }},
	}
}

func (sim *Simulator) segmentGauges(seg *Segment) []gauge {
	prefix := SegmentPrefix(seg.Index)
	gauges := []gauge{
		{prefix + ".Running", func() float64 { return num.Bool(seg.Running()) }},
		{prefix + ".Trip", func() float64 { return float64(seg.Trip().Index()) }},
		{prefix + ".BeltSpeed", func() float64 { return seg.BeltSpeed(sim.Mechanics) }},
		{prefix + ".PackageMass", func() float64 { return seg.PackageMass }},
	}
	gauges = append(gauges, vfdGauges(prefix+".Vfd", seg.Vfd)...)
	return append(gauges, motorGauges(prefix+".Motor", seg.Motor)...)
}

// SegmentPrefix is the snapshot name prefix of segment i.
func SegmentPrefix(i int) string {
	return fmt.Sprintf("Segments[%d]", i)
}

// PackagePrefix is the snapshot name prefix of the package with the given ID.
// IDs are never reused, so a channel follows one package for its whole life.
func PackagePrefix(id int64) string {
	return fmt.Sprintf("Packages[%d]", id)
}

func (sim *Simulator) buildGauges() {
	sim.gauges = supplyGauges(sim.Supply)
	for _, seg := range sim.Segments {
		sim.gauges = append(sim.gauges, sim.segmentGauges(seg)...)
	}
}

// Snapshot returns the observable plant state as ordered name/value pairs.
// Booleans read 0/1 and trip codes read as fault.Code.Index. Each package on
// the belt contributes PositionM then MassKg under PackagePrefix(ID).
func (sim *Simulator) Snapshot() trace.Sample {
	pkgs := sim.Line.Packages()
	values := make([]trace.Value, 0, len(sim.gauges)+1+2*len(pkgs))
	for _, p := range sim.gauges {
		values = append(values, trace.Value{Name: p.name, Value: p.get()})
	}
	values = append(values, trace.Value{Name: "Packages.Count", Value: float64(len(pkgs))})
	for _, p := range pkgs {
		prefix := PackagePrefix(p.ID)
		values = append(values,
			trace.Value{Name: prefix + ".PositionM", Value: p.PositionM},
			trace.Value{Name: prefix + ".MassKg", Value: p.MassKg},
		)
	}
	return trace.Sample{RunID: sim.RunID, Time: sim.Now(), Values: values}
}
