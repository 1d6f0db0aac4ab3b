package scenario

import (
	"fmt"
	"sort"
)

// Built-in scenarios. Each returns a fresh Spec.

// DriveReference exercises every drive-side fault path on a single drive:
// a load jam, a supply sag that trips, phase loss while tripped, a reset and
// finally bearing wear.
func DriveReference() *Spec {
	return &Spec{
		Name:        "drive-reference",
		Description: "load jam 5-12 s, supply sag 15-16.5 s, phase loss 20 s, reset 22 s, bearing wear 24 s",
		Events: []EventSpec{
			toggle(5, nil, "loadjam", true),
			toggle(12, nil, "loadjam", false),
			toggle(15, nil, "undervoltage", true),
			toggle(16.5, nil, "undervoltage", false),
			toggle(20, nil, "phaseloss", true),
			{At: 22, Action: ActionResetTrip},
			toggle(22, nil, "phaseloss", false),
			toggle(24, nil, "bearingwear", true),
		},
	}
}

// ConveyorJam jams the middle segment of the line and then sags the supply.
func ConveyorJam() *Spec {
	mid := 2
	return &Spec{
		Name:        "conveyor-jam",
		Description: "segment 2 jammed 5-10 s, supply sag 15-16.5 s",
		Events: []EventSpec{
			toggle(5, &mid, "loadjam", true),
			toggle(10, &mid, "loadjam", false),
			toggle(15, nil, "undervoltage", true),
			toggle(16.5, nil, "undervoltage", false),
		},
	}
}

// None runs the plant undisturbed.
func None() *Spec {
	return &Spec{Name: "none", Events: []EventSpec{}}
}

func toggle(at float64, segment *int, key string, enable bool) EventSpec {
	return EventSpec{At: at, Action: ActionToggleAnomaly, Segment: segment, Key: key, Enable: &enable}
}

var presets = map[string]func() *Spec{
	"drive-reference": DriveReference,
	"conveyor-jam":    ConveyorJam,
	"none":            None,
}

// Preset returns the named built-in scenario.
func Preset(name string) (*Spec, error) {
	f, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario preset %q; valid presets: %v", name, PresetNames())
	}
	return f(), nil
}

// PresetNames lists the built-in scenarios, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
