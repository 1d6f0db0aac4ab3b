package trace

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChannelStats describes one sampled channel over a run.
type ChannelStats struct {
	Count  int
	Mean   float64
	StdDev float64 // sample standard deviation, 0 for a single sample
	Min    float64
	Max    float64
	Final  float64
}

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	SampleCount int
	TripCount   int
	TripsByCode map[string]int
	FirstTrip   *TripRecord
	Channels    map[string]ChannelStats
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TripsByCode: make(map[string]int),
		Channels:    make(map[string]ChannelStats),
	}
	if st == nil {
		return summary
	}

	summary.SampleCount = len(st.Samples)
	summary.TripCount = len(st.Trips)
	for i, tr := range st.Trips {
		summary.TripsByCode[tr.Code]++
		if i == 0 {
			first := tr
			summary.FirstTrip = &first
		}
	}

	for _, name := range ChannelNames(st) {
		_, values := st.Series(name)
		summary.Channels[name] = channelStats(values)
	}
	return summary
}

// ChannelNames lists every channel seen in the trace, sorted.
func ChannelNames(st *SimulationTrace) []string {
	seen := make(map[string]bool)
	for _, s := range st.Samples {
		for _, v := range s.Values {
			seen[v.Name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func channelStats(values []float64) ChannelStats {
	cs := ChannelStats{Count: len(values)}
	if len(values) == 0 {
		return cs
	}
	cs.Min = floats.Min(values)
	cs.Max = floats.Max(values)
	cs.Final = values[len(values)-1]
	if len(values) == 1 {
		cs.Mean = values[0]
		return cs
	}
	cs.Mean, cs.StdDev = stat.MeanStdDev(values, nil)
	if math.IsNaN(cs.StdDev) {
		cs.StdDev = 0
	}
	return cs
}
