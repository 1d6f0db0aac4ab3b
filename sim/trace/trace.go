package trace

// TraceLevel controls what a run keeps in memory.
type TraceLevel string

const (
	// TraceLevelNone keeps only trip records.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSamples also keeps every reported sample.
	TraceLevelSamples TraceLevel = "samples"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelSamples: true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during a run.
type SimulationTrace struct {
	Config  TraceConfig
	Samples []Sample
	Trips   []TripRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Samples: make([]Sample, 0),
		Trips:   make([]TripRecord, 0),
	}
}

// RecordSample appends a sample when the trace level keeps samples.
func (st *SimulationTrace) RecordSample(s Sample) {
	if st.Config.Level != TraceLevelSamples {
		return
	}
	st.Samples = append(st.Samples, s)
}

// RecordTrip appends a trip record.
func (st *SimulationTrace) RecordTrip(record TripRecord) {
	st.Trips = append(st.Trips, record)
}

// Series returns the time axis and values of one channel across the recorded
// samples. Samples that lack the channel are skipped.
func (st *SimulationTrace) Series(name string) (times, values []float64) {
	for _, s := range st.Samples {
		if v, ok := s.Get(name); ok {
			times = append(times, s.Time)
			values = append(values, v)
		}
	}
	return times, values
}
