package runner

import (
	"chainbench/internal/results"
	"chainbench/internal/variable"
)

// StepContext carries the most recent step result of one input. It is a
// value: Next returns a new context and never changes the receiver.
type StepContext struct {
	last results.StepResult
}

// NewStepContext returns the context seen by the first step: an empty
// response at step 0.
func NewStepContext(inputName, configName string) StepContext {
	return StepContext{last: results.StepResult{InputName: inputName, ConfigName: configName}}
}

// Last returns the most recent step result.
func (c StepContext) Last() results.StepResult {
	return c.last
}

// Output exposes the most recent result to output-variable references.
func (c StepContext) Output() variable.Output {
	return c.last
}

// Next returns the context that follows result.
func (c StepContext) Next(result results.StepResult) StepContext {
	return StepContext{last: result}
}
