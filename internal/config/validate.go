package config

import (
	"fmt"
	"strings"

	"chainbench/internal/model"
	"chainbench/internal/spec"
	"chainbench/internal/variable"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// Validate checks a normalized config for the sections mode needs.
func Validate(cfg *spec.Config, mode Mode) error {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}

	if timeout, err := Timeout(*cfg); err != nil {
		add("config.timeout", fmt.Sprintf("invalid duration %q", cfg.Timeout))
	} else if timeout <= 0 {
		add("config.timeout", "must be positive")
	}
	if cfg.Concurrency < 0 {
		add("config.concurrency", "must be >= 0")
	}
	if cfg.RequestsPerMinute < 0 {
		add("config.requests_per_minute", "must be >= 0")
	}

	if mode == ModeTest || mode == ModeFull {
		validateTest(cfg, add)
	}
	if mode == ModeEval || mode == ModeFull {
		validateEvals(cfg, add)
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validateTest(cfg *spec.Config, add func(field, message string)) {
	if cfg.Name == "" {
		add("config.name", "is required")
	} else if strings.ContainsAny(cfg.Name, `/\`) || cfg.Name == "." || cfg.Name == ".." {
		add("config.name", fmt.Sprintf("%q cannot be used as a directory name", cfg.Name))
	}

	if len(cfg.Input) == 0 {
		add("config.input", "at least one input is required")
	}
	inputNames := map[string]struct{}{}
	for i, input := range cfg.Input {
		fieldPrefix := fmt.Sprintf("config.input[%d]", i)
		name := strings.TrimSpace(input.Name)
		if name == "" {
			add(fieldPrefix+".name", "is required")
		} else if _, exists := inputNames[name]; exists {
			add("config.input.name", fmt.Sprintf("duplicate name %q", name))
		} else {
			inputNames[name] = struct{}{}
		}
		for j, v := range input.Vars {
			varField := fmt.Sprintf("%s.vars[%d]", fieldPrefix, j)
			validateNamedVar(v, varField, add)
			if v.Type == variable.KindOutput {
				add(varField+".type", "output variables are only allowed in step vars")
			}
		}
	}

	if len(cfg.Steps) == 0 {
		add("config.steps", "at least one step is required")
	}
	stepIndices := map[int]struct{}{}
	for i, step := range cfg.Steps {
		fieldPrefix := fmt.Sprintf("config.steps[%d]", i)
		if strings.TrimSpace(step.Name) == "" {
			add(fieldPrefix+".name", "is required")
		}
		if step.Step < 1 {
			add(fieldPrefix+".step", "must be >= 1")
		} else if _, exists := stepIndices[step.Step]; exists {
			add("config.steps.step", fmt.Sprintf("duplicate step index %d", step.Step))
		} else {
			stepIndices[step.Step] = struct{}{}
		}
		if strings.TrimSpace(step.ModelConfig.ModelID) == "" {
			add(fieldPrefix+".modelConfig.modelId", "is required")
		}
		switch provider := step.ModelConfig.Provider; {
		case provider == "":
			add(fieldPrefix+".modelConfig.provider", "is required (set config.provider or LLM_PROVIDER)")
		case !model.IsKnownProvider(provider):
			add(fieldPrefix+".modelConfig.provider", fmt.Sprintf("unsupported provider %q", provider))
		}
		prompt := step.Input.Prompt
		validateVar(prompt, fieldPrefix+".input.prompt", add)
		if prompt.Type == variable.KindOutput {
			add(fieldPrefix+".input.prompt.type", "prompt must be a string or textfile")
		}
		for j, v := range step.Input.Vars {
			validateNamedVar(v, fmt.Sprintf("%s.input.vars[%d]", fieldPrefix, j), add)
		}
	}
}

func validateVar(v spec.VariableSpec, field string, add func(field, message string)) {
	switch v.Type {
	case variable.KindLiteral, variable.KindFile, variable.KindOutput:
	default:
		add(field+".type", fmt.Sprintf("unsupported type %q", v.Type))
		return
	}
	if v.Type != variable.KindLiteral && strings.TrimSpace(v.Value) == "" {
		add(field+".value", "is required")
	}
}

func validateNamedVar(v spec.VariableSpec, field string, add func(field, message string)) {
	if strings.TrimSpace(v.Name) == "" {
		add(field+".name", "is required")
	}
	validateVar(v, field, add)
}

func validateEvals(cfg *spec.Config, add func(field, message string)) {
	for i, eval := range cfg.Evals {
		if eval.Name == "" {
			add(fmt.Sprintf("config.evals[%d].name", i), "is required")
		}
	}
}
