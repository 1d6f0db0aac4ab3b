// Package report renders a run for people: a periodic status table, the
// event log, a summary and PNG plots of sampled channels.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/conveyor-sim/conveyor-sim/sim/fault"
	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

// maxListedPackages bounds the package line under each table block.
const maxListedPackages = 5

// tripNames maps a published trip index back to its code name.
var tripNames = map[int]string{}

func init() {
	for _, c := range []fault.Code{fault.None, fault.UnderVoltage, fault.OverVoltage, fault.OverCurrent,
		fault.OverTemp, fault.GroundFault, fault.PhaseLoss} {
		tripNames[c.Index()] = c.String()
	}
}

// Table prints one row per segment for every sample it receives.
type Table struct {
	w             io.Writer
	segments      int
	segmentLength float64
	wroteHeader   bool
}

// NewTable returns a table for a line of the given layout.
func NewTable(w io.Writer, segments int, lengthM float64) *Table {
	return &Table{w: w, segments: segments, segmentLength: lengthM / float64(segments)}
}

// Publish writes the sample as a block of rows.
func (t *Table) Publish(_ context.Context, s trace.Sample) error {
	if !t.wroteHeader {
		if err := t.header(); err != nil {
			return err
		}
		t.wroteHeader = true
	}
	v := s.Map()
	pkgs := packagesOf(s)
	counts := t.packagesPerSegment(pkgs)
	var b strings.Builder
	for i := 0; i < t.segments; i++ {
		p := fmt.Sprintf("Segments[%d]", i)
		run := "N"
		if v[p+".Running"] != 0 {
			run = "Y"
		}
		fmt.Fprintf(&b, "%6.2f  %3d  %8.1f  %8.0f  %5.1f  %6.0f  %10.2f  %4d  %7.1f  %6.0f  %s   %s\n",
			s.Time, i,
			v[p+".Vfd.Outputs.OutputFrequency"],
			v[p+".Vfd.Outputs.OutputVoltage"],
			v[p+".Motor.Outputs.PhaseCurrent"],
			v[p+".Motor.State.SpeedRpm"],
			v[p+".BeltSpeed"],
			counts[i],
			v[p+".Vfd.State.HeatsinkTemp"],
			v[p+".Vfd.State.BusVoltage"],
			run,
			tripNames[int(v[p+".Trip"])],
		)
	}
	if len(pkgs) > 0 {
		b.WriteString("       pkgs: ")
		for j := 0; j < len(pkgs) && j < maxListedPackages; j++ {
			fmt.Fprintf(&b, "[%5.1f m, %5.2f kg] ", pkgs[j].positionM, pkgs[j].massKg)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// Close is a no-op; the table does not own its writer.
func (t *Table) Close() error { return nil }

func (t *Table) header() error {
	_, err := fmt.Fprintf(t.w, "%s\n%s\n",
		"time    seg  f_out(Hz)  V_out(V)   I(A)   rpm    v_belt(m/s)  pkgs  T_hs(°C)  Vdc(V)  RUN Trip",
		strings.Repeat("-", 110))
	return err
}

// packageValue is one package read back from a sample.
type packageValue struct {
	positionM float64
	massKg    float64
}

// packagesOf collects the packages of a sample in snapshot order. Each
// package is a "Packages[<id>].PositionM" value followed by its MassKg.
func packagesOf(s trace.Sample) []packageValue {
	var pkgs []packageValue
	for _, v := range s.Values {
		if !strings.HasPrefix(v.Name, "Packages[") {
			continue
		}
		switch {
		case strings.HasSuffix(v.Name, ".PositionM"):
			pkgs = append(pkgs, packageValue{positionM: v.Value})
		case strings.HasSuffix(v.Name, ".MassKg") && len(pkgs) > 0:
			pkgs[len(pkgs)-1].massKg = v.Value
		}
	}
	return pkgs
}

func (t *Table) packagesPerSegment(pkgs []packageValue) []int {
	counts := make([]int, t.segments)
	for _, p := range pkgs {
		i := int(p.positionM / t.segmentLength)
		if i >= 0 && i < t.segments {
			counts[i]++
		}
	}
	return counts
}
