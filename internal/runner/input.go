package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"chainbench/internal/model"
	"chainbench/internal/prompt"
	"chainbench/internal/results"
	"chainbench/internal/variable"
)

// executor runs inputs through the planned steps. It holds no per-input
// state, so one executor serves concurrent inputs.
type executor struct {
	configName string
	loc        OutputLocation
	steps      []stepPlan
	resolver   *variable.Resolver
	observer   RunObserver
	metrics    *runMetrics
	now        func() time.Time
}

// runInput folds the steps over one input. On failure the row keeps the
// steps completed so far and carries the error message.
func (e *executor) runInput(ctx context.Context, input inputPlan) (results.AggregatedRow, []results.StepResult, error) {
	e.observer.OnInputStart(InputEvent{Index: input.Index, Name: input.Name, EmittedAt: e.now()})
	log := make([]results.StepResult, 0, len(e.steps))

	finish := func(runErr error) (results.AggregatedRow, []results.StepResult, error) {
		row := results.Aggregate(input.Name, e.configName, log)
		event := InputEvent{Index: input.Index, Name: input.Name, EmittedAt: e.now()}
		if runErr != nil {
			row.Error = runErr.Error()
			event.Error = row.Error
		}
		event.Row = row
		e.metrics.observeInput(runErr != nil)
		e.observer.OnInputEnd(event)
		if runErr != nil {
			return row, log, fmt.Errorf("input %q: %w", input.Name, runErr)
		}
		return row, log, nil
	}

	inputVars, err := e.resolver.ResolveAll(input.Vars, nil)
	if err != nil {
		return finish(fmt.Errorf("input variables: %w", err))
	}

	stepCtx := NewStepContext(input.Name, e.configName)
	for position, step := range e.steps {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		result, err := e.runStep(ctx, input, position, step, inputVars, stepCtx)
		if err != nil {
			return finish(fmt.Errorf("step %q: %w", step.Config.Name, err))
		}
		log = append(log, result)
		stepCtx = stepCtx.Next(result)
	}
	return finish(nil)
}

// runStep wraps executeStep with observer and metrics events.
func (e *executor) runStep(ctx context.Context, input inputPlan, position int, step stepPlan, inputVars map[string]string, stepCtx StepContext) (results.StepResult, error) {
	event := StepEvent{
		InputIndex: input.Index,
		InputName:  input.Name,
		Position:   position,
		Step:       step.Config.Step,
		StepName:   step.Config.Name,
		Model:      step.Config.ModelConfig.ModelID,
		EmittedAt:  e.now(),
	}
	e.observer.OnStepStart(event)

	result, err := e.executeStep(ctx, input, step, inputVars, stepCtx)
	event.EmittedAt = e.now()
	event.Latency = result.Latency
	if err != nil {
		event.Error = err.Error()
	}
	e.metrics.observeStep(event)
	e.observer.OnStepEnd(event)
	return result, err
}

// executeStep resolves the prompt, calls the model and writes the response file.
func (e *executor) executeStep(ctx context.Context, input inputPlan, step stepPlan, inputVars map[string]string, stepCtx StepContext) (results.StepResult, error) {
	template, err := e.resolver.Resolve(step.Prompt, nil)
	if err != nil {
		return results.StepResult{}, fmt.Errorf("prompt: %w", err)
	}
	stepVars, err := e.resolver.ResolveAll(step.Vars, stepCtx.Output())
	if err != nil {
		return results.StepResult{}, fmt.Errorf("step variables: %w", err)
	}
	text, err := prompt.Build(template, variable.Merge(inputVars, stepVars))
	if err != nil {
		return results.StepResult{}, fmt.Errorf("build prompt: %w", err)
	}

	modelID := step.Config.ModelConfig.ModelID
	resp, err := step.Invoker.Invoke(ctx, model.Request{
		Model:      modelID,
		Parameters: step.Config.ModelConfig.Parameters,
		Prompt:     text,
	})
	if err != nil {
		return results.StepResult{}, err
	}

	path := e.loc.ResponsePath(modelID, input.Name, step.Config.Name)
	if err := os.WriteFile(path, []byte(resp.Text), 0o644); err != nil {
		return results.StepResult{Latency: resp.Latency}, fmt.Errorf("write response: %w", err)
	}

	return results.StepResult{
		InputName:      input.Name,
		ConfigName:     e.configName,
		Step:           step.Config.Step,
		StepName:       step.Config.Name,
		ShortModelName: results.ShortModelName(modelID),
		ModelParams:    step.ModelParams,
		Response:       resp.Text,
		Latency:        resp.Latency,
	}, nil
}
