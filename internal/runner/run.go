package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chainbench/internal/config"
	"chainbench/internal/model"
	"chainbench/internal/results"
	"chainbench/internal/spec"
	"chainbench/internal/variable"
)

// RunTests executes every input through every step, writes response files and
// result artifacts, and returns one row per input in input order. A failed
// input keeps its completed steps and does not stop the run; input failures
// are joined into the returned error.
func RunTests(ctx context.Context, cfg spec.Config, params RunParams) (TestRun, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return TestRun{}, fmt.Errorf("config name is required")
	}
	if len(cfg.Steps) == 0 {
		return TestRun{}, fmt.Errorf("config %q has no steps", cfg.Name)
	}
	now := params.Deps.Now
	if now == nil {
		now = time.Now
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID, err := ensureRunID(params.Deps.RunID)
	if err != nil {
		return TestRun{}, err
	}

	loc, err := NewOutputLocation(params.Workspace, cfg.Name)
	if err != nil {
		return TestRun{}, err
	}
	if err := os.MkdirAll(loc.Dir, 0o755); err != nil {
		return TestRun{}, fmt.Errorf("create output dir: %w", err)
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout, err = config.Timeout(cfg)
		if err != nil {
			return TestRun{}, fmt.Errorf("timeout: %w", err)
		}
	}
	factory := params.Deps.ProviderFactory
	if factory == nil {
		factory = model.NewRegistry(os.Getenv, nil).Provider
	}

	inputs, err := planInputs(cfg)
	if err != nil {
		return TestRun{}, err
	}
	steps, err := planSteps(ctx, cfg, factory, timeout, now)
	if err != nil {
		return TestRun{}, err
	}

	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	observer := Observers(newLogObserver(logger), params.Observer)
	metrics := newRunMetrics(cfg.Name)
	exec := &executor{
		configName: cfg.Name,
		loc:        loc,
		steps:      steps,
		resolver:   variable.NewResolver(variable.NewDocuments(params.Workspace.InputsDir())),
		observer:   observer,
		metrics:    metrics,
		now:        now,
	}

	run := TestRun{
		RunID:      runID,
		ConfigName: cfg.Name,
		OutputDir:  loc.Dir,
		StartedAt:  now(),
		Rows:       make([]results.AggregatedRow, len(inputs)),
		Logs:       make([][]results.StepResult, len(inputs)),
	}
	observer.OnRunStart(RunInfo{
		RunID:      runID,
		ConfigName: cfg.Name,
		OutputDir:  loc.Dir,
		Inputs:     inputNames(inputs),
		Steps:      stepNames(steps),
		StartedAt:  run.StartedAt,
	})

	inputErrs := make([]error, len(inputs))
	var group errgroup.Group
	group.SetLimit(concurrency)
	for i, input := range inputs {
		group.Go(func() error {
			run.Rows[i], run.Logs[i], inputErrs[i] = exec.runInput(ctx, input)
			return nil
		})
	}
	_ = group.Wait()
	run.FinishedAt = now()

	writeErr := WriteTestOutputs(ctx, run, loc, OutputOptions{
		ResultsDB: params.ResultsDB || cfg.ResultsDB,
		Metrics:   params.Metrics || cfg.Metrics,
		RunName:   params.Workspace.RunName,
		Revision:  params.Revision,
		metrics:   metrics,
	})
	if writeErr != nil {
		logger.Error("write outputs failed", zap.Error(writeErr))
	}
	observer.OnRunEnd(run)

	return run, errors.Join(append(inputErrs, writeErr)...)
}

// ensureRunID returns a run ID from the provided generator or a default.
func ensureRunID(fn func() (string, error)) (string, error) {
	if fn == nil {
		fn = NewRunID
	}
	runID, err := fn()
	if err != nil {
		return "", fmt.Errorf("run id: %w", err)
	}
	return runID, nil
}

func inputNames(inputs []inputPlan) []string {
	names := make([]string, len(inputs))
	for i, input := range inputs {
		names[i] = input.Name
	}
	return names
}

func stepNames(steps []stepPlan) []string {
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.Config.Name
	}
	return names
}
