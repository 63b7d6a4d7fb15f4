package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chainbench/internal/model"
	"chainbench/internal/results"
	"chainbench/internal/spec"
	"chainbench/internal/variable"
)

// planInputs types the variables of every input case.
func planInputs(cfg spec.Config) ([]inputPlan, error) {
	plans := make([]inputPlan, 0, len(cfg.Input))
	for i, input := range cfg.Input {
		vars, err := variable.FromSpecs(input.Vars)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", input.Name, err)
		}
		plans = append(plans, inputPlan{Index: i, Name: strings.TrimSpace(input.Name), Vars: vars})
	}
	return plans, nil
}

// planSteps types step variables and binds each step to an invoker. Providers
// are built once per name and share one limiter.
func planSteps(ctx context.Context, cfg spec.Config, factory ProviderFactory, timeout time.Duration, now func() time.Time) ([]stepPlan, error) {
	limiter := model.NewLimiter(cfg.RequestsPerMinute)
	providers := map[string]model.Provider{}
	plans := make([]stepPlan, 0, len(cfg.Steps))
	for _, step := range cfg.Steps {
		prompt, err := variable.FromSpec(step.Input.Prompt)
		if err != nil {
			return nil, fmt.Errorf("step %q prompt: %w", step.Name, err)
		}
		if _, isOutput := prompt.(variable.OutputRef); isOutput {
			return nil, fmt.Errorf("step %q prompt: must be a string or textfile", step.Name)
		}
		vars, err := variable.FromSpecs(step.Input.Vars)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}
		params, err := results.CanonicalParams(step.ModelConfig.Parameters)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}
		name := step.ModelConfig.Provider
		provider, ok := providers[name]
		if !ok {
			provider, err = factory(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("step %q provider: %w", step.Name, err)
			}
			providers[name] = provider
		}
		plans = append(plans, stepPlan{
			Config: step,
			Prompt: prompt,
			Vars:   vars,
			Invoker: model.Invoker{
				Provider: provider,
				Timeout:  timeout,
				Now:      now,
				Limiter:  limiter,
			},
			ModelParams: params,
		})
	}
	return plans, nil
}
