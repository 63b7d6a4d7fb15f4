package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"chainbench/internal/results"
)

// DriverName is the database/sql driver registered by duckdb-go.
const DriverName = "duckdb"

// RunRecord identifies one test run in the store.
type RunRecord struct {
	RunID      string
	ConfigName string
	RunName    string
	StartedAt  time.Time
	FinishedAt time.Time
	GitCommit  string
	GitBranch  string
	GitDirty   bool
}

// Store persists step results and aggregated rows to a DuckDB file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if ctx == nil {
		return nil, errors.New("duckdb: context is nil")
	}
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying connection for queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts or replaces the run row.
func (s *Store) RecordRun(ctx context.Context, run RunRecord) error {
	var finished any
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt.UTC()
	}
	var commit, branch, dirty any
	if run.GitCommit != "" {
		commit, dirty = run.GitCommit, run.GitDirty
		if run.GitBranch != "" {
			branch = run.GitBranch
		}
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO runs (run_id, config_name, run_name, started_at, finished_at, git_commit, git_branch, git_dirty)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, run.RunID, run.ConfigName, run.RunName, run.StartedAt.UTC(), finished, commit, branch, dirty)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordSteps inserts the step log of one input in a single transaction.
func (s *Store) RecordSteps(ctx context.Context, runID string, log []results.StepResult) error {
	if len(log) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, step := range log {
		params := step.ModelParams
		if params == "" {
			params = "{}"
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO step_results
(id, run_id, config_name, input_name, step, step_name, model_name, model_params, params_fingerprint, latency_ms, response)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), runID, step.ConfigName, step.InputName, step.Step, step.StepName,
			step.ShortModelName, params, results.Fingerprint(params),
			float64(step.Latency)/float64(time.Millisecond), step.Response)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert step %d for %s: %w", step.Step, step.InputName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecordRow inserts one aggregated row.
func (s *Store) RecordRow(ctx context.Context, runID string, row results.AggregatedRow) error {
	var rowErr any
	if row.Error != "" {
		rowErr = row.Error
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO input_rows
(id, run_id, config_name, input_name, total_latency_sec, steps_completed, error)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), runID, row.ConfigName, row.InputName, row.TotalLatencySec, len(row.Steps), rowErr)
	if err != nil {
		return fmt.Errorf("insert row for %s: %w", row.InputName, err)
	}
	return nil
}

// InputSummary is a row read back from the store.
type InputSummary struct {
	InputName       string
	TotalLatencySec float64
	StepsCompleted  int
	Error           string
}

// Inputs returns the stored rows of a run in input-name order.
func (s *Store) Inputs(ctx context.Context, runID string) ([]InputSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT input_name, total_latency_sec, steps_completed, coalesce(error, '')
FROM input_rows WHERE run_id = ? ORDER BY input_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("query inputs: %w", err)
	}
	defer rows.Close()
	var out []InputSummary
	for rows.Next() {
		var item InputSummary
		if err := rows.Scan(&item.InputName, &item.TotalLatencySec, &item.StepsCompleted, &item.Error); err != nil {
			return nil, fmt.Errorf("scan input: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
