// Package trace holds the records a run produces: sampled plant snapshots and
// trip events. This package has no dependencies on sim/ so sinks and reports
// can consume it without importing the engine.
package trace

// Value is one named scalar of a snapshot.
type Value struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Sample is a flat snapshot of the plant taken after a tick.
type Sample struct {
	RunID  string  `json:"run_id,omitempty"`
	Time   float64 `json:"time"` // simulated seconds
	Values []Value `json:"values"`
}

// Get returns the value recorded under name.
func (s Sample) Get(name string) (float64, bool) {
	for _, v := range s.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

// Map returns the values keyed by name.
func (s Sample) Map() map[string]float64 {
	m := make(map[string]float64, len(s.Values))
	for _, v := range s.Values {
		m[v.Name] = v.Value
	}
	return m
}

// TripRecord captures a ledger latching a fault.
type TripRecord struct {
	Time   float64 `json:"time"`
	Source string  `json:"source"` // "" when a single ledger guards the whole plant
	Code   string  `json:"code"`
}
