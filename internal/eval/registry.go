package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"

	"chainbench/internal/config"
	"chainbench/internal/spec"
)

// ErrConfig marks eval configuration errors.
var ErrConfig = errors.New("eval config error")

// ErrUnknownEval is returned for an eval name missing from the registry.
var ErrUnknownEval = errors.New("unknown eval")

func configError(err error) error {
	if errors.Is(err, ErrConfig) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConfig, err)
}

// Status is the outcome of one eval.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusError Status = "error"
)

// Env is what an eval needs to run one configured entry.
type Env struct {
	Config    spec.EvalConfig
	Workspace config.Workspace
	Logger    *zap.Logger
	Report    *Reporter
}

// Result is the outcome of one configured eval.
type Result struct {
	Name    string
	Status  Status
	Reports []FileReport
	Err     error
}

// Eval is one statically registered evaluation.
type Eval interface {
	Name() string
	Run(ctx context.Context, env Env) (Result, error)
}

// Registry maps eval names to implementations.
type Registry struct {
	mu    sync.RWMutex
	evals map[string]Eval
}

// NewRegistry creates a registry holding evals.
func NewRegistry(evals ...Eval) *Registry {
	r := &Registry{evals: map[string]Eval{}}
	for _, e := range evals {
		r.Register(e)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in eval.
func DefaultRegistry() *Registry {
	return NewRegistry(PatternSearch{})
}

// Register inserts or replaces an eval.
func (r *Registry) Register(e Eval) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evals[e.Name()] = e
}

// Get returns the eval registered under name.
func (r *Registry) Get(name string) (Eval, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.evals[name]
	return e, ok
}

// Names returns the registered eval names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.evals))
	for name := range r.evals {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// RunParams configures RunEvals.
type RunParams struct {
	Workspace config.Workspace
	Registry  *Registry
	Logger    *zap.Logger
	Stdout    io.Writer
	NoColor   bool
}

// Run is the outcome of every configured eval.
type Run struct {
	Results []Result
}

// Errors counts evals that ended with a configuration or runtime error.
func (r Run) Errors() int {
	return r.count(StatusError)
}

// Failures counts evals that found matches.
func (r Run) Failures() int {
	return r.count(StatusFail)
}

func (r Run) count(status Status) int {
	n := 0
	for _, result := range r.Results {
		if result.Status == status {
			n++
		}
	}
	return n
}

// RunEvals runs every eval of cfg in order. An eval that fails to configure
// is reported and skipped; the returned error joins those failures.
func RunEvals(ctx context.Context, cfg spec.Config, params RunParams) (Run, error) {
	registry := params.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stdout := params.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	reporter := NewReporter(stdout, params.NoColor)

	run := Run{Results: make([]Result, 0, len(cfg.Evals))}
	var errs []error
	for _, evalCfg := range cfg.Evals {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		log := logger.With(zap.String("eval", evalCfg.Name))
		e, ok := registry.Get(evalCfg.Name)
		if !ok {
			err := configError(fmt.Errorf("%w %q", ErrUnknownEval, evalCfg.Name))
			log.Error("eval skipped", zap.Error(err))
			reporter.Error(evalCfg.Name, err)
			run.Results = append(run.Results, Result{Name: evalCfg.Name, Status: StatusError, Err: err})
			errs = append(errs, err)
			continue
		}
		log.Info("eval started")
		result, err := e.Run(ctx, Env{
			Config:    evalCfg,
			Workspace: params.Workspace,
			Logger:    log,
			Report:    reporter,
		})
		result.Name = evalCfg.Name
		if err != nil {
			result.Status = StatusError
			result.Err = err
			log.Error("eval failed", zap.Error(err))
			reporter.Error(evalCfg.Name, err)
			errs = append(errs, fmt.Errorf("eval %s: %w", evalCfg.Name, err))
		} else {
			log.Info("eval finished", zap.String("status", string(result.Status)))
		}
		run.Results = append(run.Results, result)
	}
	reporter.Summary(run)
	return run, errors.Join(errs...)
}
