package conveyor

import (
	"fmt"
	"math/rand"
)

// SpawnSettings configure the package arrival process.
type SpawnSettings struct {
	Period       float64 `yaml:"period"` // s, 0 disables spawning
	MassMinKg    float64 `yaml:"mass_min_kg"`
	MassMaxKg    float64 `yaml:"mass_max_kg"`
	PositionMinM float64 `yaml:"position_min_m"`
	PositionMaxM float64 `yaml:"position_max_m"`
}

// DefaultSpawnSettings drops one 5-25 kg package per second somewhere on the
// first two segments of a 50 m line.
func DefaultSpawnSettings() SpawnSettings {
	return SpawnSettings{
		Period:       1.0,
		MassMinKg:    5.0,
		MassMaxKg:    25.0,
		PositionMinM: 0.5,
		PositionMaxM: 20.0,
	}
}

// Validate checks the ranges against a line of the given length.
func (s SpawnSettings) Validate(lengthM float64) error {
	if s.Period < 0 {
		return fmt.Errorf("spawn period must be non-negative, got %g", s.Period)
	}
	if s.Period == 0 {
		return nil
	}
	if s.MassMinKg < 0 || s.MassMaxKg < s.MassMinKg {
		return fmt.Errorf("spawn mass range [%g, %g] is invalid", s.MassMinKg, s.MassMaxKg)
	}
	if s.PositionMinM < 0 || s.PositionMaxM < s.PositionMinM || s.PositionMaxM >= lengthM {
		return fmt.Errorf("spawn position range [%g, %g] must lie within [0, %g)",
			s.PositionMinM, s.PositionMaxM, lengthM)
	}
	return nil
}

// Spawner places packages at a fixed period.
type Spawner struct {
	settings SpawnSettings
	rng      *rand.Rand
	next     float64
}

// NewSpawner returns a spawner whose first arrival is at t=0.
func NewSpawner(settings SpawnSettings, rng *rand.Rand) *Spawner {
	return &Spawner{settings: settings, rng: rng}
}

// Spawn adds a package to line if one is due at time now.
func (s *Spawner) Spawn(now float64, line *Line) (Package, bool) {
	if s.settings.Period <= 0 || now < s.next {
		return Package{}, false
	}
	s.next += s.settings.Period
	pos := uniform(s.rng, s.settings.PositionMinM, s.settings.PositionMaxM)
	mass := uniform(s.rng, s.settings.MassMinKg, s.settings.MassMaxKg)
	return line.Add(pos, mass), true
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
