package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPlantConfig reads a YAML plant file and overlays it on base. Keys absent
// from the file keep base's values; unknown keys are rejected.
func LoadPlantConfig(path string, base PlantConfig) (PlantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PlantConfig{}, fmt.Errorf("reading plant config: %w", err)
	}
	return ParsePlantConfig(data, base)
}

// ParsePlantConfig is LoadPlantConfig for in-memory YAML.
func ParsePlantConfig(data []byte, base PlantConfig) (PlantConfig, error) {
	cfg := base
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return PlantConfig{}, fmt.Errorf("parsing plant config: %w", err)
	}
	return cfg, nil
}
