package eval

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chainbench/internal/config"
	"chainbench/internal/spec"
	"chainbench/internal/testutil"
)

type staticEval struct {
	name   string
	result Result
	err    error
	calls  int
}

func (s *staticEval) Name() string { return s.name }

func (s *staticEval) Run(context.Context, Env) (Result, error) {
	s.calls++
	return s.result, s.err
}

func newWorkspace(t *testing.T) config.Workspace {
	t.Helper()
	ws, err := config.NewWorkspace(t.TempDir(), "")
	require.NoError(t, err)
	return ws
}

func patternSearchConfig(searchPath, ruleset string) spec.EvalConfig {
	return spec.EvalConfig{
		Name:        PatternSearchName,
		SearchPath:  searchPath,
		Ruleset:     ruleset,
		RulesetType: RulesetCSV,
	}
}

// TestRunEvalsPatternSearch verifies the report printed for a matching file.
func TestRunEvalsPatternSearch(t *testing.T) {
	ws := newWorkspace(t)
	testutil.WriteFile(t, ws.InputsDir(), "patterns.csv", "pattern\nfoo\nbar\n")
	testutil.WriteFile(t, ws.OutputsDir(), "demo/a.txt", "foo\nbaz bar")
	testutil.WriteFile(t, ws.OutputsDir(), "demo/b.txt", "clean")

	var out bytes.Buffer
	cfg := spec.Config{Evals: []spec.EvalConfig{patternSearchConfig("demo", "patterns.csv")}}
	run, err := RunEvals(context.Background(), cfg, RunParams{Workspace: ws, Stdout: &out, NoColor: true})
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	require.Equal(t, StatusFail, run.Results[0].Status)
	require.Equal(t, 1, run.Failures())
	require.Zero(t, run.Errors())

	text := out.String()
	require.Contains(t, text, "❌ a.txt: Pattern 'foo' found at : Ln 1, Col 0; Pattern 'bar' found at : Ln 2, Col 4")
	require.Contains(t, text, "✅ b.txt: No matches!")
	require.Contains(t, text, PatternSearchName)
}

// TestRunEvalsEmptySearchDirectory verifies an empty directory passes.
func TestRunEvalsEmptySearchDirectory(t *testing.T) {
	ws := newWorkspace(t)
	testutil.WriteFile(t, ws.InputsDir(), "patterns.csv", "pattern\nfoo\n")
	require.NoError(t, os.MkdirAll(ws.OutputPath("empty"), 0o755))

	cfg := spec.Config{Evals: []spec.EvalConfig{patternSearchConfig("empty", "patterns.csv")}}
	run, err := RunEvals(context.Background(), cfg, RunParams{Workspace: ws})
	require.NoError(t, err)
	require.Equal(t, StatusPass, run.Results[0].Status)
	require.Empty(t, run.Results[0].Reports)
}

// TestRunEvalsConfigErrors verifies configuration problems skip the eval.
func TestRunEvalsConfigErrors(t *testing.T) {
	ws := newWorkspace(t)
	testutil.WriteFile(t, ws.InputsDir(), "patterns.csv", "pattern\nfoo\n")
	testutil.WriteFile(t, ws.InputsDir(), "empty.csv", "pattern\n")
	testutil.WriteFile(t, ws.OutputsDir(), "demo/a.txt", "foo")

	cases := map[string]spec.EvalConfig{
		"missing search path": patternSearchConfig("nope", "patterns.csv"),
		"missing ruleset":     patternSearchConfig("demo", "missing.csv"),
		"empty ruleset":       patternSearchConfig("demo", "empty.csv"),
		"no search path":      patternSearchConfig("", "patterns.csv"),
		"unknown type": {
			Name: PatternSearchName, SearchPath: "demo", Ruleset: "patterns.csv", RulesetType: "xlsx",
		},
	}
	for name, evalCfg := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			cfg := spec.Config{Evals: []spec.EvalConfig{evalCfg}}
			run, err := RunEvals(context.Background(), cfg, RunParams{Workspace: ws, Stdout: &out, NoColor: true})
			require.ErrorIs(t, err, ErrConfig)
			require.Equal(t, 1, run.Errors())
			require.Empty(t, run.Results[0].Reports)
			require.NotContains(t, out.String(), "a.txt")
		})
	}
}

// TestRunEvalsUnknownEvalSkipped verifies later evals still run.
func TestRunEvalsUnknownEvalSkipped(t *testing.T) {
	ok := &staticEval{name: "ok", result: Result{Status: StatusPass}}
	registry := NewRegistry(ok)
	cfg := spec.Config{Evals: []spec.EvalConfig{{Name: "missing"}, {Name: "ok"}}}

	run, err := RunEvals(context.Background(), cfg, RunParams{Registry: registry})
	require.ErrorIs(t, err, ErrUnknownEval)
	require.ErrorIs(t, err, ErrConfig)
	require.Equal(t, 1, ok.calls)
	require.Len(t, run.Results, 2)
	require.Equal(t, StatusError, run.Results[0].Status)
	require.Equal(t, StatusPass, run.Results[1].Status)
	require.Equal(t, "ok", run.Results[1].Name)
}

// TestRunEvalsRuntimeError verifies eval failures are joined.
func TestRunEvalsRuntimeError(t *testing.T) {
	boom := errors.New("boom")
	broken := &staticEval{name: "broken", err: boom}
	cfg := spec.Config{Evals: []spec.EvalConfig{{Name: "broken"}}}

	run, err := RunEvals(context.Background(), cfg, RunParams{Registry: NewRegistry(broken)})
	require.ErrorIs(t, err, boom)
	require.Equal(t, StatusError, run.Results[0].Status)
}

// TestRunEvalsCanceled verifies a canceled context stops the loop.
func TestRunEvalsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &staticEval{name: "e", result: Result{Status: StatusPass}}
	cfg := spec.Config{Evals: []spec.EvalConfig{{Name: "e"}}}

	_, err := RunEvals(ctx, cfg, RunParams{Registry: NewRegistry(e)})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, e.calls)
}

// TestRegistryNames verifies registered names are sorted.
func TestRegistryNames(t *testing.T) {
	registry := NewRegistry(&staticEval{name: "zeta"}, &staticEval{name: "alpha"})
	require.Equal(t, []string{"alpha", "zeta"}, registry.Names())
	require.Equal(t, []string{PatternSearchName}, DefaultRegistry().Names())
}

// TestFormatFileReport verifies the per-file report lines.
func TestFormatFileReport(t *testing.T) {
	clean := FormatFileReport(FileReport{File: "/x/clean.txt"})
	require.Equal(t, "✅ clean.txt: No matches!", clean)

	matched := FormatFileReport(FileReport{
		File:       "/x/hit.txt",
		HasMatches: true,
		Matches: []MatchRecord{{
			Pattern:   "foo",
			Positions: []Position{{Line: 1, Column: 0}, {Line: 3, Column: 7}},
		}},
	})
	require.Equal(t, "❌ hit.txt: Pattern 'foo' found at : Ln 1, Col 0, Ln 3, Col 7", matched)

	failed := FormatFileReport(FileReport{File: "/x/bad.txt", Err: errors.New("denied")})
	require.True(t, strings.HasPrefix(failed, "⚠️ bad.txt"))
}
