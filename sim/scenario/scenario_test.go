package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conveyor-sim/conveyor-sim/sim"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_BuildsEventsInFileOrder(t *testing.T) {
	// GIVEN a file with one of each action
	path := writeTempYAML(t, `
name: mixed
events:
  - at: 1
    action: set-target-frequency
    segment: 0
    hz: 40
  - at: 5
    action: toggle-anomaly
    key: loadjam
    enable: true
  - at: 8
    action: reset-trip
`)

	// WHEN loaded, validated and built
	spec, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, spec.Validate(1))
	events := spec.Build()

	// THEN each action maps onto its event type
	require.Len(t, events, 3)
	assert.Equal(t, &sim.SetTargetFrequencyEvent{At: 1, Segment: 0, Hz: 40}, events[0])
	assert.Equal(t, &sim.ToggleAnomalyEvent{At: 5, Segment: sim.AllSegments, Key: "loadjam", Enable: true}, events[1])
	assert.Equal(t, &sim.ResetTripEvent{At: 8, Segment: sim.AllSegments}, events[2])
	assert.Equal(t, "mixed", spec.Name)
}

func TestParse_RejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`
events:
  - at: 1
    action: reset-trip
    when: later
`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "when")
}

func TestParse_EmptyDocument(t *testing.T) {
	spec, err := Parse(nil)

	require.NoError(t, err)
	assert.Empty(t, spec.Build())
}

func TestValidate_Errors(t *testing.T) {
	hz := -1.0
	on := true
	seg := 5
	tests := []struct {
		name  string
		event EventSpec
		want  string
	}{
		{"unknown action", EventSpec{Action: "explode"}, "unknown action"},
		{"segment out of range", EventSpec{Action: ActionResetTrip, Segment: &seg}, "segment 5"},
		{"missing hz", EventSpec{Action: ActionSetTargetFrequency}, "requires hz"},
		{"negative hz", EventSpec{Action: ActionSetTargetFrequency, Hz: &hz}, "non-negative"},
		{"missing enable", EventSpec{Action: ActionToggleAnomaly, Key: "loadjam"}, "requires key and enable"},
		{"missing key", EventSpec{Action: ActionToggleAnomaly, Enable: &on}, "requires key and enable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec := &Spec{Events: []EventSpec{tc.event}}

			err := spec.Validate(5)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "event[0]")
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_UnknownAnomalyKeyIsNotAnError(t *testing.T) {
	on := true
	spec := &Spec{Events: []EventSpec{{At: 1, Action: ActionToggleAnomaly, Key: "gremlins", Enable: &on}}}

	assert.NoError(t, spec.Validate(1))
}

func TestPresets_ValidAgainstTheirPlants(t *testing.T) {
	tests := []struct {
		scenario string
		segments int
	}{
		{"drive-reference", 1},
		{"conveyor-jam", 5},
		{"none", 1},
	}
	for _, tc := range tests {
		t.Run(tc.scenario, func(t *testing.T) {
			spec, err := Preset(tc.scenario)
			require.NoError(t, err)
			assert.Equal(t, tc.scenario, spec.Name)
			assert.NoError(t, spec.Validate(tc.segments))
		})
	}
	assert.Equal(t, []string{"conveyor-jam", "drive-reference", "none"}, PresetNames())
}

func TestPreset_Unknown(t *testing.T) {
	_, err := Preset("earthquake")
	assert.Error(t, err)
}

func TestDriveReference_ResetPrecedesPhaseLossClear(t *testing.T) {
	events := DriveReference().Build()

	require.Len(t, events, 8)
	_, isReset := events[5].(*sim.ResetTripEvent)
	assert.True(t, isReset)
	off, ok := events[6].(*sim.ToggleAnomalyEvent)
	require.True(t, ok)
	assert.Equal(t, "phaseloss", off.Key)
	assert.False(t, off.Enable)
	assert.Equal(t, events[5].Timestamp(), events[6].Timestamp())
}

func TestConveyorJam_RunsOnConveyorPlant(t *testing.T) {
	// GIVEN the conveyor plant shortened to 12 s and the jam scenario
	cfg := sim.ConveyorPlantConfig()
	cfg.Run.Duration = 12
	cfg.Run.SpeedFactor = 0
	cfg.Run.StartDelay = 0
	s, err := sim.NewSimulator(cfg, ConveyorJam().Build())
	require.NoError(t, err)

	// WHEN ticking to just before the jam clears
	for s.Now() < 9.9 {
		s.Tick()
	}

	// THEN only segment 2 carries the jam flag and every scheduled jam event fired
	assert.True(t, s.Segments[2].Motor.State.LoadJam)
	assert.False(t, s.Segments[1].Motor.State.LoadJam)
	assert.Equal(t, 3, s.PendingEvents())
}
