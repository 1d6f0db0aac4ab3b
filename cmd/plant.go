package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/conveyor-sim/conveyor-sim/sim"
	"github.com/conveyor-sim/conveyor-sim/sim/scenario"
)

// defaultScenarios pairs each plant preset with the scenario it was tuned for.
var defaultScenarios = map[string]string{
	"conveyor": "conveyor-jam",
	"drive":    "drive-reference",
}

// resolvePlant builds the plant config: preset, then the YAML overlay, then
// the run flags the user actually set. Unset flags never override YAML.
func resolvePlant(cmd *cobra.Command) (sim.PlantConfig, error) {
	cfg, err := sim.PlantPreset(plantName)
	if err != nil {
		return sim.PlantConfig{}, err
	}
	if configPath != "" {
		cfg, err = sim.LoadPlantConfig(configPath, cfg)
		if err != nil {
			return sim.PlantConfig{}, err
		}
		logrus.Infof("plant overlay loaded from %s", configPath)
	}

	flags := cmd.Flags()
	if flags.Changed("trip-scope") {
		cfg.TripScope = sim.TripScope(tripScope)
	}
	if flags.Changed("duration") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("sample-period") {
		cfg.Run.SamplePeriod = samplePeriod
	}
	if flags.Changed("speed") {
		cfg.Run.SpeedFactor = speedFactor
	}
	if flags.Changed("start-delay") {
		cfg.Run.StartDelay = startDelay
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return sim.PlantConfig{}, fmt.Errorf("invalid plant %q: %w", cfg.Name, err)
	}
	return cfg, nil
}

// resolveScenario loads the scenario file or preset and checks it against the plant.
func resolveScenario(cfg sim.PlantConfig) (*scenario.Spec, error) {
	var (
		spec *scenario.Spec
		err  error
	)
	switch {
	case scenarioPath != "":
		spec, err = scenario.Load(scenarioPath)
	case scenarioName != "":
		spec, err = scenario.Preset(scenarioName)
	default:
		name, ok := defaultScenarios[plantName]
		if !ok {
			name = "none"
		}
		spec, err = scenario.Preset(name)
	}
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(cfg.Conveyor.Segments); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", spec.Name, err)
	}
	return spec, nil
}
