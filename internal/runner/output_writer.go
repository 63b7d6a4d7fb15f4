package runner

import (
	"context"
	"errors"
	"fmt"

	"chainbench/internal/duckdb"
	"chainbench/internal/results"
	"chainbench/internal/vcs"
)

// OutputOptions selects the optional artifacts of a run.
type OutputOptions struct {
	ResultsDB bool
	Metrics   bool
	RunName   string
	Revision  vcs.Revision

	metrics *runMetrics
}

// WriteTestOutputs writes the results CSV and, when enabled, the DuckDB store
// and metrics textfile. Every artifact is attempted even if one fails.
func WriteTestOutputs(ctx context.Context, run TestRun, loc OutputLocation, opts OutputOptions) error {
	var errs []error
	if err := results.WriteCSVFile(loc.ResultsPath(), run.Rows); err != nil {
		errs = append(errs, err)
	}
	if opts.ResultsDB {
		if err := writeStore(ctx, run, loc.DatabasePath(), opts); err != nil {
			errs = append(errs, fmt.Errorf("results db: %w", err))
		}
	}
	if opts.Metrics && opts.metrics != nil {
		if err := opts.metrics.writeTextfile(loc.MetricsPath()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeStore(ctx context.Context, run TestRun, path string, opts OutputOptions) error {
	store, err := duckdb.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RecordRun(ctx, duckdb.RunRecord{
		RunID:      run.RunID,
		ConfigName: run.ConfigName,
		RunName:    opts.RunName,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		GitCommit:  opts.Revision.Commit,
		GitBranch:  opts.Revision.Branch,
		GitDirty:   opts.Revision.Dirty,
	}); err != nil {
		return err
	}
	for i, row := range run.Rows {
		if i < len(run.Logs) {
			if err := store.RecordSteps(ctx, run.RunID, run.Logs[i]); err != nil {
				return err
			}
		}
		if err := store.RecordRow(ctx, run.RunID, row); err != nil {
			return err
		}
	}
	return nil
}
