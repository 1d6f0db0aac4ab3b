package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/conveyor-sim/conveyor-sim/sim/fault"
	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

// PrintEventLog writes the event log, one " - " prefixed line per entry.
func PrintEventLog(w io.Writer, entries []fault.Entry) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Event log:")
	for _, e := range entries {
		fmt.Fprintln(w, " - "+e.String())
	}
}

// PrintSummary writes trip counts and the statistics of the named channels.
// Channels missing from the summary are skipped.
func PrintSummary(w io.Writer, s *trace.TraceSummary, channels []string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Samples: %d  Trips: %d\n", s.SampleCount, s.TripCount)
	if s.FirstTrip != nil {
		src := s.FirstTrip.Source
		if src == "" {
			src = "plant"
		}
		fmt.Fprintf(w, "First trip: %s (%s) at %.2fs\n", s.FirstTrip.Code, src, s.FirstTrip.Time)
	}
	codes := make([]string, 0, len(s.TripsByCode))
	for c := range s.TripsByCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	for _, c := range codes {
		fmt.Fprintf(w, "  %-14s %d\n", c, s.TripsByCode[c])
	}

	wrote := false
	for _, name := range channels {
		cs, ok := s.Channels[name]
		if !ok {
			continue
		}
		if !wrote {
			fmt.Fprintf(w, "%-44s %10s %10s %10s %10s %10s\n", "channel", "mean", "stddev", "min", "max", "final")
			wrote = true
		}
		fmt.Fprintf(w, "%-44s %10.2f %10.2f %10.2f %10.2f %10.2f\n", name, cs.Mean, cs.StdDev, cs.Min, cs.Max, cs.Final)
	}
}
