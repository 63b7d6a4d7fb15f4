package config

import (
	"strings"
	"time"

	"chainbench/internal/model"
	"chainbench/internal/spec"
	"chainbench/internal/variable"
)

// DefaultTimeout is the model call timeout when the config sets none.
const DefaultTimeout = "10m"

// Normalize fills defaults: the config provider falls back to defaultProvider,
// each step inherits the config provider, and variable types are canonical.
func Normalize(cfg *spec.Config, defaultProvider string) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(defaultProvider))
	}
	if strings.TrimSpace(cfg.Timeout) == "" {
		cfg.Timeout = DefaultTimeout
	}
	for i := range cfg.Input {
		normalizeVars(cfg.Input[i].Vars)
	}
	for i := range cfg.Steps {
		step := &cfg.Steps[i]
		step.ModelConfig.Provider = strings.ToLower(strings.TrimSpace(step.ModelConfig.Provider))
		if step.ModelConfig.Provider == "" {
			step.ModelConfig.Provider = cfg.Provider
		}
		step.Input.Prompt.Type = variable.NormalizeKind(step.Input.Prompt.Type)
		normalizeVars(step.Input.Vars)
	}
	for i := range cfg.Evals {
		cfg.Evals[i].Name = strings.TrimSpace(cfg.Evals[i].Name)
	}
}

func normalizeVars(vars []spec.VariableSpec) {
	for i := range vars {
		vars[i].Type = variable.NormalizeKind(vars[i].Type)
	}
}

// Timeout returns the parsed model call timeout.
func Timeout(cfg spec.Config) (time.Duration, error) {
	value := strings.TrimSpace(cfg.Timeout)
	if value == "" {
		return model.DefaultTimeout, nil
	}
	return time.ParseDuration(value)
}
