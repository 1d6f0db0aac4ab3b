package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlantPresets_AreValid(t *testing.T) {
	for _, name := range PlantPresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := PlantPreset(name)
			require.NoError(t, err)
			assert.Equal(t, name, cfg.Name)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestPlantPreset_Unknown(t *testing.T) {
	_, err := PlantPreset("mill")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "conveyor")
}

func TestRunConfig_Validate_NoProgress(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*RunConfig)
	}{
		{"zero dt", func(c *RunConfig) { c.Dt = 0 }},
		{"negative dt", func(c *RunConfig) { c.Dt = -0.01 }},
		{"NaN dt", func(c *RunConfig) { c.Dt = math.NaN() }},
		{"infinite dt", func(c *RunConfig) { c.Dt = math.Inf(1) }},
		{"negative duration", func(c *RunConfig) { c.Duration = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DrivePlantConfig().Run
			tc.mut(&cfg)

			err := cfg.Validate()

			assert.True(t, errors.Is(err, ErrNoProgress), "got %v", err)
		})
	}
}

func TestRunConfig_Validate_OtherErrors(t *testing.T) {
	cfg := DrivePlantConfig().Run
	cfg.TraceLevel = "decisions"
	err := cfg.Validate()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoProgress))

	cfg = DrivePlantConfig().Run
	cfg.SamplePeriod = -1
	assert.Error(t, cfg.Validate())
}

func TestPlantConfig_Validate_NamesSection(t *testing.T) {
	cfg := ConveyorPlantConfig()
	cfg.Motor.PolePairs = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "motor")

	cfg = ConveyorPlantConfig()
	cfg.TripScope = "zone"
	assert.Error(t, cfg.Validate())

	cfg = ConveyorPlantConfig()
	cfg.Conveyor.Segments = 0
	assert.Error(t, cfg.Validate())
}
