package config

import (
	"fmt"
	"os"

	"chainbench/internal/spec"
)

// Mode selects which parts of a config must be present.
type Mode string

const (
	ModeTest Mode = "test"
	ModeEval Mode = "eval"
	ModeFull Mode = "full"
)

// LoadOptions controls loading for a particular run.
type LoadOptions struct {
	Mode            Mode
	DefaultProvider string
}

// Load reads, schema-checks, parses, normalizes, and validates a config file.
func Load(path string, opts LoadOptions) (spec.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return spec.Config{}, fmt.Errorf("read config: %w", err)
	}
	return LoadBytes(data, opts)
}

// LoadBytes is Load for config contents already in memory.
func LoadBytes(data []byte, opts LoadOptions) (spec.Config, error) {
	raw, err := spec.ParseRaw(data)
	if err != nil {
		return spec.Config{}, err
	}
	if issues := ValidateSchema(raw); len(issues) > 0 {
		return spec.Config{}, &ValidationError{Issues: issues}
	}
	cfg, err := spec.ParseConfig(data)
	if err != nil {
		return spec.Config{}, err
	}
	Normalize(&cfg, opts.DefaultProvider)
	if err := Validate(&cfg, opts.Mode); err != nil {
		return spec.Config{}, err
	}
	return cfg, nil
}
