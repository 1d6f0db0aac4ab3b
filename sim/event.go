package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// AllSegments targets every segment (setpoints, resets) or the plant as a
// whole (anomalies).
const AllSegments = -1

// Event defines the interface for all scenario events.
// Each event has a Timestamp in simulated seconds and an Execute method
// that changes plant state when the scheduler fires it.
type Event interface {
	Timestamp() float64
	Execute(*Simulator)
}

// eventTime clamps negative timestamps to the start of the run.
func eventTime(at float64) float64 {
	return math.Max(0, at)
}

func targetLabel(segment int) string {
	if segment == AllSegments {
		return "all segments"
	}
	return fmt.Sprintf("segment %d", segment)
}

// SetTargetFrequencyEvent changes drive setpoints.
type SetTargetFrequencyEvent struct {
	At      float64
	Segment int // AllSegments for every drive
	Hz      float64
}

// Timestamp returns the scheduled time of the SetTargetFrequencyEvent.
func (e *SetTargetFrequencyEvent) Timestamp() float64 { return eventTime(e.At) }

// Execute applies the setpoint.
func (e *SetTargetFrequencyEvent) Execute(sim *Simulator) {
	logrus.Infof("<< SetTargetFrequency: %s -> %.2f Hz at %.2fs", targetLabel(e.Segment), e.Hz, sim.Now())
	sim.SetTargetFrequency(e.Segment, e.Hz)
}

// ToggleAnomalyEvent enables or disables an anomaly by key.
type ToggleAnomalyEvent struct {
	At      float64
	Segment int // AllSegments for a plant-wide anomaly
	Key     string
	Enable  bool
}

// Timestamp returns the scheduled time of the ToggleAnomalyEvent.
func (e *ToggleAnomalyEvent) Timestamp() float64 { return eventTime(e.At) }

// Execute dispatches the anomaly.
func (e *ToggleAnomalyEvent) Execute(sim *Simulator) {
	logrus.Infof("<< ToggleAnomaly: %s=%t on %s at %.2fs", e.Key, e.Enable, targetLabel(e.Segment), sim.Now())
	sim.ToggleAnomaly(e.Segment, e.Key, e.Enable)
}

// ResetTripEvent acknowledges trips.
type ResetTripEvent struct {
	At      float64
	Segment int // AllSegments resets every ledger
}

// Timestamp returns the scheduled time of the ResetTripEvent.
func (e *ResetTripEvent) Timestamp() float64 { return eventTime(e.At) }

// Execute resets the targeted ledgers.
func (e *ResetTripEvent) Execute(sim *Simulator) {
	logrus.Infof("<< ResetTrip: %s at %.2fs", targetLabel(e.Segment), sim.Now())
	sim.ResetTrip(e.Segment)
}

// ActionEvent runs an arbitrary function against the plant, for changes that
// touch several components under one name.
type ActionEvent struct {
	At    float64
	Label string
	Do    func(*Simulator)
}

// Timestamp returns the scheduled time of the ActionEvent.
func (e *ActionEvent) Timestamp() float64 { return eventTime(e.At) }

// Execute runs the action and logs its label.
func (e *ActionEvent) Execute(sim *Simulator) {
	logrus.Infof("<< Action: %s at %.2fs", e.Label, sim.Now())
	if e.Label != "" {
		sim.Log("action " + e.Label)
	}
	if e.Do != nil {
		e.Do(sim)
	}
}
