package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chainbench/internal/config"
	"chainbench/internal/model"
	"chainbench/internal/results"
	"chainbench/internal/spec"
	"chainbench/internal/variable"
	"chainbench/internal/vcs"
)

// ProviderFactory builds the model provider for a provider name.
type ProviderFactory func(ctx context.Context, name string) (model.Provider, error)

// RunDependencies allows injecting factories and clocks for a run.
type RunDependencies struct {
	ProviderFactory ProviderFactory
	RunID           func() (string, error)
	Now             func() time.Time
}

// RunParams configures a test run. Zero values defer to the config file.
type RunParams struct {
	Workspace   config.Workspace
	Concurrency int
	Timeout     time.Duration
	ResultsDB   bool
	Metrics     bool
	Logger      *zap.Logger
	Observer    RunObserver
	Revision    vcs.Revision
	Deps        RunDependencies
}

// TestRun is the outcome of one test run.
type TestRun struct {
	RunID      string
	ConfigName string
	OutputDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       []results.AggregatedRow
	Logs       [][]results.StepResult
}

// Failed returns the number of inputs that did not complete every step.
func (r TestRun) Failed() int {
	failed := 0
	for _, row := range r.Rows {
		if row.Failed() {
			failed++
		}
	}
	return failed
}

// stepPlan is a step with its variables typed and its invoker bound.
type stepPlan struct {
	Config      spec.StepConfig
	Prompt      variable.Var
	Vars        []variable.Var
	Invoker     model.Invoker
	ModelParams string
}

// inputPlan is an input case with its variables typed.
type inputPlan struct {
	Index int
	Name  string
	Vars  []variable.Var
}
