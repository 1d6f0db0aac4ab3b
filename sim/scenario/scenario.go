// Package scenario loads scenario files and provides built-in scenarios.
//
// A scenario is a list of timed actions against the plant. Files are YAML:
//
//	name: jam-then-sag
//	events:
//	  - at: 5
//	    action: toggle-anomaly
//	    segment: 2
//	    key: loadjam
//	    enable: true
//	  - at: 15
//	    action: toggle-anomaly
//	    key: undervoltage
//	    enable: true
//
// An omitted segment targets the whole plant.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/conveyor-sim/conveyor-sim/sim"
)

// Action names accepted in scenario files.
const (
	ActionSetTargetFrequency = "set-target-frequency"
	ActionToggleAnomaly      = "toggle-anomaly"
	ActionResetTrip          = "reset-trip"
)

var validActions = map[string]bool{
	ActionSetTargetFrequency: true,
	ActionToggleAnomaly:      true,
	ActionResetTrip:          true,
}

// Spec is a scenario as written in a file.
type Spec struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Events      []EventSpec `yaml:"events"`
}

// EventSpec is one timed action. Segment nil means the whole plant.
type EventSpec struct {
	At      float64  `yaml:"at"`
	Action  string   `yaml:"action"`
	Segment *int     `yaml:"segment,omitempty"`
	Key     string   `yaml:"key,omitempty"`
	Enable  *bool    `yaml:"enable,omitempty"`
	Hz      *float64 `yaml:"hz,omitempty"`
}

// Load reads and parses a scenario file. It does not validate.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes scenario YAML, rejecting unknown fields.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &spec, nil
}

// Validate checks every event against a plant with the given number of segments.
// Unknown anomaly keys are reported as warnings, not errors, since the plant ignores them.
func (s *Spec) Validate(segments int) error {
	for i, e := range s.Events {
		if err := e.validate(segments); err != nil {
			return fmt.Errorf("event[%d]: %w", i, err)
		}
	}
	return nil
}

func (e EventSpec) validate(segments int) error {
	if !validActions[e.Action] {
		return fmt.Errorf("unknown action %q; valid: %s, %s, %s",
			e.Action, ActionSetTargetFrequency, ActionToggleAnomaly, ActionResetTrip)
	}
	if math.IsNaN(e.At) || math.IsInf(e.At, 0) {
		return fmt.Errorf("at must be finite, got %g", e.At)
	}
	if e.Segment != nil && (*e.Segment < 0 || *e.Segment >= segments) {
		return fmt.Errorf("segment %d does not exist; plant has %d segments", *e.Segment, segments)
	}
	switch e.Action {
	case ActionSetTargetFrequency:
		if e.Hz == nil {
			return fmt.Errorf("%s requires hz", e.Action)
		}
		if *e.Hz < 0 || math.IsNaN(*e.Hz) {
			return fmt.Errorf("hz must be non-negative, got %g", *e.Hz)
		}
	case ActionToggleAnomaly:
		if e.Key == "" || e.Enable == nil {
			return fmt.Errorf("%s requires key and enable", e.Action)
		}
		if !sim.IsAnomalyKey(e.Key) {
			logrus.Warnf("scenario anomaly key %q is not recognized and will be ignored", e.Key)
		}
	}
	return nil
}

// Build converts the scenario into simulator events in file order.
func (s *Spec) Build() []sim.Event {
	events := make([]sim.Event, 0, len(s.Events))
	for _, e := range s.Events {
		segment := sim.AllSegments
		if e.Segment != nil {
			segment = *e.Segment
		}
		switch e.Action {
		case ActionSetTargetFrequency:
			events = append(events, &sim.SetTargetFrequencyEvent{At: e.At, Segment: segment, Hz: deref(e.Hz)})
		case ActionToggleAnomaly:
			enable := e.Enable != nil && *e.Enable
			events = append(events, &sim.ToggleAnomalyEvent{At: e.At, Segment: segment, Key: e.Key, Enable: enable})
		case ActionResetTrip:
			events = append(events, &sim.ResetTripEvent{At: e.At, Segment: segment})
		}
	}
	return events
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
