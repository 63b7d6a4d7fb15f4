package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"chainbench/internal/config"
	"chainbench/internal/duckdb"
	"chainbench/internal/model"
	"chainbench/internal/prompt"
	"chainbench/internal/results"
	"chainbench/internal/spec"
	"chainbench/internal/testutil"
	"chainbench/internal/vcs"
)

// recordingObserver captures lifecycle events for assertions.
type recordingObserver struct {
	mu     sync.Mutex
	events []string
	runEnd *TestRun
}

func (o *recordingObserver) add(event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) OnRunStart(info RunInfo) { o.add("run_start:" + info.ConfigName) }
func (o *recordingObserver) OnInputStart(event InputEvent) {
	o.add("input_start:" + event.Name)
}
func (o *recordingObserver) OnStepStart(event StepEvent) {
	o.add(fmt.Sprintf("step_start:%s:%d", event.InputName, event.Step))
}
func (o *recordingObserver) OnStepEnd(event StepEvent) {
	status := "ok"
	if event.Error != "" {
		status = "error"
	}
	o.add(fmt.Sprintf("step_end:%s:%d:%s", event.InputName, event.Step, status))
}
func (o *recordingObserver) OnInputEnd(event InputEvent) { o.add("input_end:" + event.Name) }
func (o *recordingObserver) OnRunEnd(run TestRun) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runEnd = &run
	o.events = append(o.events, "run_end")
}

type harness struct {
	ws       config.Workspace
	clock    *testutil.FakeClock
	provider *testutil.StubProvider
	observer *recordingObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ws, err := config.NewWorkspace(t.TempDir(), "")
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	clock := testutil.NewFakeClock(time.Time{})
	return &harness{
		ws:       ws,
		clock:    clock,
		provider: &testutil.StubProvider{Clock: clock, Replies: map[string][]testutil.Reply{}},
		observer: &recordingObserver{},
	}
}

func (h *harness) params() RunParams {
	return RunParams{
		Workspace: h.ws,
		Observer:  h.observer,
		Deps: RunDependencies{
			ProviderFactory: func(_ context.Context, _ string) (model.Provider, error) {
				return h.provider, nil
			},
			RunID: func() (string, error) { return "run-1", nil },
			Now:   h.clock.Now,
		},
	}
}

func summarizeConfig() spec.Config {
	return spec.Config{
		Name: "summarize",
		Input: []spec.InputCase{{
			Name: "doc1",
			Vars: []spec.VariableSpec{{Name: "text", Type: "textfile", Value: "doc1.md"}},
		}},
		Steps: []spec.StepConfig{{
			Name: "summarize",
			Step: 1,
			ModelConfig: spec.ModelConfig{
				Provider:   "stub",
				ModelID:    "ibm/granite-13b-chat-v2",
				Parameters: map[string]any{"max_new_tokens": 200},
			},
			Input: spec.StepInput{Prompt: spec.VariableSpec{Name: "prompt", Type: "string", Value: "Summarize: {text}"}},
		}},
	}
}

// TestRunTestsSingleStep covers a one-step summary with a file variable.
func TestRunTestsSingleStep(t *testing.T) {
	h := newHarness(t)
	testutil.WriteFile(t, h.ws.Root, "inputs/doc1.md", "A cat sat on a mat. It was sunny.")
	h.provider.Replies["ibm/granite-13b-chat-v2"] = []testutil.Reply{{Text: "A cat sat on a mat.", Latency: 120 * time.Millisecond}}

	run, err := RunTests(testutil.Context(t, 0), summarizeConfig(), h.params())
	if err != nil {
		t.Fatalf("run tests: %v", err)
	}
	if got := h.provider.Prompts(); len(got) != 1 || got[0] != "Summarize: A cat sat on a mat. It was sunny." {
		t.Fatalf("unexpected prompts %q", got)
	}
	if len(run.Rows) != 1 {
		t.Fatalf("expected one row, got %d", len(run.Rows))
	}
	row := run.Rows[0]
	if row.TotalLatencySec != 0.12 || row.Error != "" {
		t.Fatalf("unexpected row %+v", row)
	}
	step := row.Steps[1]
	if step.ModelName != "ibm-granite-13b-chat-v2" || step.LatencySec != "0.12" || step.ModelParams != `{"max_new_tokens":200}` || step.Response != "A cat sat on a mat." {
		t.Fatalf("unexpected step columns %+v", step)
	}

	responsePath := filepath.Join(h.ws.TestOutputDir("summarize"), "ibm-granite-13b-chat-v2-doc1-summarize-response.txt")
	if got := testutil.ReadFile(t, responsePath); got != "A cat sat on a mat." {
		t.Fatalf("unexpected response file %q", got)
	}
	csvText := testutil.ReadFile(t, filepath.Join(run.OutputDir, "summarize-results.csv"))
	if !strings.Contains(csvText, `"step1Response"`) || !strings.Contains(csvText, `"A cat sat on a mat."`) {
		t.Fatalf("unexpected csv:\n%s", csvText)
	}
}

// TestRunTestsChainsOutput verifies a step reads the previous response.
func TestRunTestsChainsOutput(t *testing.T) {
	h := newHarness(t)
	cfg := spec.Config{
		Name:  "chain",
		Input: []spec.InputCase{{Name: "in1", Vars: []spec.VariableSpec{{Name: "topic", Value: "cats"}}}},
		Steps: []spec.StepConfig{
			{
				Name:        "write",
				Step:        1,
				ModelConfig: spec.ModelConfig{ModelID: "m1"},
				Input:       spec.StepInput{Prompt: spec.VariableSpec{Value: "Write about {topic}"}},
			},
			{
				Name:        "shorten",
				Step:        2,
				ModelConfig: spec.ModelConfig{ModelID: "m2"},
				Input: spec.StepInput{
					Prompt: spec.VariableSpec{Value: "Shorten: {prev}"},
					Vars:   []spec.VariableSpec{{Name: "prev", Type: "output_variable", Value: "response"}},
				},
			},
		},
	}
	h.provider.Replies["m1"] = []testutil.Reply{{Text: "S1", Latency: time.Second}}
	h.provider.Replies["m2"] = []testutil.Reply{{Text: "S2", Latency: 500 * time.Millisecond}}

	run, err := RunTests(testutil.Context(t, 0), cfg, h.params())
	if err != nil {
		t.Fatalf("run tests: %v", err)
	}
	prompts := h.provider.Prompts()
	if len(prompts) != 2 || prompts[0] != "Write about cats" || prompts[1] != "Shorten: S1" {
		t.Fatalf("unexpected prompts %q", prompts)
	}
	row := run.Rows[0]
	if row.Steps[1].Response != "S1" || row.Steps[2].Response != "S2" {
		t.Fatalf("unexpected steps %+v", row.Steps)
	}
	if row.TotalLatencySec != 1.5 {
		t.Fatalf("expected total 1.5, got %v", row.TotalLatencySec)
	}
}

// TestRunTestsStepVarsWin verifies step variables shadow input variables.
func TestRunTestsStepVarsWin(t *testing.T) {
	h := newHarness(t)
	cfg := spec.Config{
		Name:  "shadow",
		Input: []spec.InputCase{{Name: "in1", Vars: []spec.VariableSpec{{Name: "tone", Value: "input"}}}},
		Steps: []spec.StepConfig{{
			Name:        "s",
			Step:        1,
			ModelConfig: spec.ModelConfig{ModelID: "m"},
			Input: spec.StepInput{
				Prompt: spec.VariableSpec{Value: "{tone}/{seed}"},
				Vars: []spec.VariableSpec{
					{Name: "tone", Value: "step"},
					{Name: "seed", Type: "output_variable", Value: "step"},
				},
			},
		}},
	}
	h.provider.Default = func(req model.Request) testutil.Reply { return testutil.Reply{Text: "ok"} }

	if _, err := RunTests(testutil.Context(t, 0), cfg, h.params()); err != nil {
		t.Fatalf("run tests: %v", err)
	}
	if got := h.provider.Prompts(); len(got) != 1 || got[0] != "step/0" {
		t.Fatalf("unexpected prompts %q", got)
	}
}

// TestRunTestsIsolatesInputFailures verifies a broken input does not stop others.
func TestRunTestsIsolatesInputFailures(t *testing.T) {
	h := newHarness(t)
	testutil.WriteFile(t, h.ws.Root, "inputs/doc2.md", "Dogs bark.")
	cfg := summarizeConfig()
	cfg.Input = []spec.InputCase{
		{Name: "doc1", Vars: []spec.VariableSpec{{Name: "text", Type: "textfile", Value: "missing.md"}}},
		{Name: "doc2", Vars: []spec.VariableSpec{{Name: "text", Type: "textfile", Value: "doc2.md"}}},
	}
	h.provider.Default = func(req model.Request) testutil.Reply { return testutil.Reply{Text: "ok", Latency: time.Second} }

	run, err := RunTests(testutil.Context(t, 0), cfg, h.params())
	if err == nil || !strings.Contains(err.Error(), `input "doc1"`) {
		t.Fatalf("expected doc1 failure, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist cause, got %v", err)
	}
	if len(run.Rows) != 2 || run.Failed() != 1 {
		t.Fatalf("unexpected rows %+v", run.Rows)
	}
	if run.Rows[0].Error == "" || len(run.Rows[0].Steps) != 0 {
		t.Fatalf("unexpected failed row %+v", run.Rows[0])
	}
	if run.Rows[1].Error != "" || run.Rows[1].Steps[1].Response != "ok" {
		t.Fatalf("unexpected second row %+v", run.Rows[1])
	}
	csvText := testutil.ReadFile(t, filepath.Join(run.OutputDir, "summarize-results.csv"))
	if strings.Count(csvText, "\n") != 3 {
		t.Fatalf("expected header and two rows:\n%s", csvText)
	}
}

// TestRunTestsModelFailureKeepsCompletedSteps verifies partial rows.
func TestRunTestsModelFailureKeepsCompletedSteps(t *testing.T) {
	h := newHarness(t)
	cfg := spec.Config{
		Name:  "partial",
		Input: []spec.InputCase{{Name: "in1"}},
		Steps: []spec.StepConfig{
			{Name: "one", Step: 1, ModelConfig: spec.ModelConfig{ModelID: "m1"}, Input: spec.StepInput{Prompt: spec.VariableSpec{Value: "first"}}},
			{Name: "two", Step: 2, ModelConfig: spec.ModelConfig{ModelID: "m2"}, Input: spec.StepInput{Prompt: spec.VariableSpec{Value: "second"}}},
			{Name: "three", Step: 3, ModelConfig: spec.ModelConfig{ModelID: "m3"}, Input: spec.StepInput{Prompt: spec.VariableSpec{Value: "third"}}},
		},
	}
	h.provider.Replies["m1"] = []testutil.Reply{{Text: "S1", Latency: time.Second}}
	h.provider.Replies["m2"] = []testutil.Reply{{Err: errors.New("service unavailable")}}

	run, err := RunTests(testutil.Context(t, 0), cfg, h.params())
	if err == nil || !strings.Contains(err.Error(), "service unavailable") {
		t.Fatalf("expected model error, got %v", err)
	}
	row := run.Rows[0]
	if len(row.Steps) != 1 || row.Steps[1].Response != "S1" || !strings.Contains(row.Error, `step "two"`) {
		t.Fatalf("unexpected row %+v", row)
	}
	if len(h.provider.Calls()) != 2 {
		t.Fatalf("expected step three to be skipped, got %d calls", len(h.provider.Calls()))
	}
	if _, err := os.Stat(filepath.Join(run.OutputDir, "m2-in1-two-response.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected no response file for failed step, got %v", err)
	}
}

// TestRunTestsMissingPlaceholder verifies template failures abort the input.
func TestRunTestsMissingPlaceholder(t *testing.T) {
	h := newHarness(t)
	cfg := spec.Config{
		Name:  "missing",
		Input: []spec.InputCase{{Name: "in1"}},
		Steps: []spec.StepConfig{{Name: "s", Step: 1, ModelConfig: spec.ModelConfig{ModelID: "m"}, Input: spec.StepInput{Prompt: spec.VariableSpec{Value: "Hello {who}"}}}},
	}
	_, err := RunTests(testutil.Context(t, 0), cfg, h.params())
	if !errors.Is(err, prompt.ErrMissingVariable) {
		t.Fatalf("expected missing variable, got %v", err)
	}
	if len(h.provider.Calls()) != 0 {
		t.Fatalf("model must not be called")
	}
}

// TestRunTestsConcurrentKeepsInputOrder verifies rows follow input order.
func TestRunTestsConcurrentKeepsInputOrder(t *testing.T) {
	h := newHarness(t)
	cfg := spec.Config{
		Name:  "parallel",
		Steps: []spec.StepConfig{{Name: "s", Step: 1, ModelConfig: spec.ModelConfig{ModelID: "m"}, Input: spec.StepInput{Prompt: spec.VariableSpec{Value: "{n}"}}}},
	}
	for i := 0; i < 8; i++ {
		cfg.Input = append(cfg.Input, spec.InputCase{
			Name: fmt.Sprintf("in%d", i),
			Vars: []spec.VariableSpec{{Name: "n", Value: fmt.Sprint(i)}},
		})
	}
	h.provider.Default = func(req model.Request) testutil.Reply { return testutil.Reply{Text: "echo " + req.Prompt} }
	params := h.params()
	params.Concurrency = 4

	run, err := RunTests(testutil.Context(t, 0), cfg, params)
	if err != nil {
		t.Fatalf("run tests: %v", err)
	}
	for i, row := range run.Rows {
		if row.InputName != fmt.Sprintf("in%d", i) || row.Steps[1].Response != fmt.Sprintf("echo %d", i) {
			t.Fatalf("row %d out of order: %+v", i, row)
		}
	}
}

// TestRunTestsObserverEvents verifies the lifecycle sequence.
func TestRunTestsObserverEvents(t *testing.T) {
	h := newHarness(t)
	testutil.WriteFile(t, h.ws.Root, "inputs/doc1.md", "text")
	h.provider.Default = func(req model.Request) testutil.Reply { return testutil.Reply{Text: "ok"} }

	if _, err := RunTests(testutil.Context(t, 0), summarizeConfig(), h.params()); err != nil {
		t.Fatalf("run tests: %v", err)
	}
	want := []string{
		"run_start:summarize",
		"input_start:doc1",
		"step_start:doc1:1",
		"step_end:doc1:1:ok",
		"input_end:doc1",
		"run_end",
	}
	if strings.Join(h.observer.events, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected events %v", h.observer.events)
	}
	if h.observer.runEnd == nil || h.observer.runEnd.RunID != "run-1" {
		t.Fatalf("unexpected run end %+v", h.observer.runEnd)
	}
}

// TestRunTestsWritesOptionalArtifacts verifies metrics and the results store.
func TestRunTestsWritesOptionalArtifacts(t *testing.T) {
	h := newHarness(t)
	testutil.WriteFile(t, h.ws.Root, "inputs/doc1.md", "text")
	h.provider.Default = func(req model.Request) testutil.Reply { return testutil.Reply{Text: "ok", Latency: time.Second} }
	cfg := summarizeConfig()
	cfg.Metrics = true
	params := h.params()
	params.ResultsDB = true
	params.Revision = vcs.Revision{Commit: "abc123", Branch: "main"}

	run, err := RunTests(testutil.Context(t, 0), cfg, params)
	if err != nil {
		t.Fatalf("run tests: %v", err)
	}
	metrics := testutil.ReadFile(t, filepath.Join(run.OutputDir, "metrics.prom"))
	if !strings.Contains(metrics, `chainbench_steps_total{config="summarize",outcome="ok",step="summarize"} 1`) {
		t.Fatalf("unexpected metrics:\n%s", metrics)
	}
	ctx := testutil.Context(t, 0)
	store, err := duckdb.Open(ctx, filepath.Join(run.OutputDir, "results.duckdb"))
	if err != nil {
		t.Fatalf("open results db: %v", err)
	}
	defer store.Close()
	var commit string
	if err := store.DB().QueryRowContext(ctx, "SELECT git_commit FROM runs WHERE run_id = ?", run.RunID).Scan(&commit); err != nil {
		t.Fatalf("query run: %v", err)
	}
	if commit != "abc123" {
		t.Fatalf("expected stored commit, got %q", commit)
	}
	inputs, err := store.Inputs(ctx, run.RunID)
	if err != nil || len(inputs) != 1 {
		t.Fatalf("unexpected stored inputs %+v %v", inputs, err)
	}
}

// TestRunTestsRunNameDirectory verifies the run name nests outputs.
func TestRunTestsRunNameDirectory(t *testing.T) {
	h := newHarness(t)
	ws, err := config.NewWorkspace(h.ws.Root, "nightly")
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	h.ws = ws
	testutil.WriteFile(t, h.ws.Root, "inputs/doc1.md", "text")
	h.provider.Default = func(req model.Request) testutil.Reply { return testutil.Reply{Text: "ok"} }

	run, err := RunTests(testutil.Context(t, 0), summarizeConfig(), h.params())
	if err != nil {
		t.Fatalf("run tests: %v", err)
	}
	if run.OutputDir != filepath.Join(h.ws.Root, "outputs", "summarize", "nightly") {
		t.Fatalf("unexpected output dir %q", run.OutputDir)
	}
}

// TestRunTestsProviderSetupError verifies provider failures abort before any input.
func TestRunTestsProviderSetupError(t *testing.T) {
	h := newHarness(t)
	params := h.params()
	params.Deps.ProviderFactory = func(_ context.Context, name string) (model.Provider, error) {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	run, err := RunTests(testutil.Context(t, 0), summarizeConfig(), params)
	if err == nil || len(run.Rows) != 0 {
		t.Fatalf("expected setup error, got %v / %+v", err, run)
	}
}

// TestStepContextIsImmutable verifies Next leaves the receiver unchanged.
func TestStepContextIsImmutable(t *testing.T) {
	first := NewStepContext("in1", "cfg")
	third := first.Next(results.StepResult{InputName: "in1", ConfigName: "cfg", Step: 1, Response: "S1"})
	if first.Last().Response != "" || first.Last().Step != 0 {
		t.Fatalf("seed context changed: %+v", first.Last())
	}
	if third.Last().Response != "S1" {
		t.Fatalf("unexpected next context %+v", third.Last())
	}
	value, ok := first.Output().Field("response")
	if !ok || value != "" {
		t.Fatalf("seed response should be empty, got %q", value)
	}
}
