package types

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SystemsConfig is the on-disk (YAML) description of every simulated system,
// keyed by system name. Names have to be unique across all sections.
type SystemsConfig struct {
	Batteries    map[string]BatteryConfig     `json:"batteries" yaml:"batteries"`
	CHPPlants    map[string]CHPConfig         `json:"chpPlants" yaml:"chpPlants"`
	HeatStorages map[string]HeatStorageConfig `json:"heatStorages" yaml:"heatStorages"`
	// Buffered systems reference the names above.
	Buffered map[string]BufferedConfig `json:"buffered" yaml:"buffered"`
}

// LoadSystemsConfig reads and validates a YAML systems description.
func LoadSystemsConfig(path string) (SystemsConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SystemsConfig{}, fmt.Errorf("failed to read systems config: %w", err)
	}
	return ParseSystemsConfig(b)
}

// ParseSystemsConfig decodes and validates a YAML systems description.
func ParseSystemsConfig(b []byte) (SystemsConfig, error) {
	var cfg SystemsConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return SystemsConfig{}, fmt.Errorf("failed to parse systems config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return SystemsConfig{}, err
	}
	return cfg, nil
}

// Validate checks every system description and the uniqueness of names.
func (c SystemsConfig) Validate() error {
	seen := make(map[string]string)
	claim := func(name, kind string) error {
		if name == "" {
			return fmt.Errorf("%s with empty name", kind)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("system name %q used by %s and %s", name, prev, kind)
		}
		seen[name] = kind
		return nil
	}

	var errs []error
	for name, b := range c.Batteries {
		if err := claim(name, "battery"); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("battery %s: %w", name, err))
		}
	}
	for name, p := range c.CHPPlants {
		if err := claim(name, "chp plant"); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("chp plant %s: %w", name, err))
		}
	}
	for name, s := range c.HeatStorages {
		if err := claim(name, "heat storage"); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("heat storage %s: %w", name, err))
		}
	}
	for name, b := range c.Buffered {
		if err := claim(name, "buffered system"); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("buffered system %s: %w", name, err))
			continue
		}
		if _, ok := c.HeatStorages[b.Storage]; !ok {
			errs = append(errs, fmt.Errorf("buffered system %s: unknown heat storage %q", name, b.Storage))
		}
		_, isBattery := c.Batteries[b.Producer]
		_, isCHP := c.CHPPlants[b.Producer]
		if !isBattery && !isCHP {
			errs = append(errs, fmt.Errorf("buffered system %s: unknown producer %q", name, b.Producer))
		}
	}
	return errors.Join(errs...)
}
