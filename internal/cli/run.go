package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"chainbench/internal/config"
	"chainbench/internal/eval"
	"chainbench/internal/runner"
	"chainbench/internal/spec"
	"chainbench/internal/ui/live"
	"chainbench/internal/vcs"
)

// runMode loads the config for mode and runs the test pipeline, the evals,
// or both.
func (a *app) runMode(ctx context.Context, mode config.Mode, args []string) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return failure(err)
	}
	cfg, err := config.Load(path, config.LoadOptions{Mode: mode, DefaultProvider: getenv(envProvider)})
	if err != nil {
		return failure(fmt.Errorf("invalid config %s:\n%w", path, err))
	}
	logger := a.log()
	logger.Info("config loaded", zap.String("path", path), zap.String("mode", string(mode)))

	var errs []error
	if mode == config.ModeTest || mode == config.ModeFull {
		if err := a.runTests(ctx, cfg); err != nil {
			errs = append(errs, err)
		}
	}
	if mode == config.ModeEval || mode == config.ModeFull {
		if ctx.Err() == nil {
			if err := a.runEvals(ctx, cfg); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return failure(err)
	}
	return nil
}

// runTests runs the step pipeline and prints a summary of every input.
func (a *app) runTests(ctx context.Context, cfg spec.Config) error {
	params := runner.RunParams{
		Workspace:   a.ws,
		Concurrency: a.opts.concurrency,
		Timeout:     a.opts.timeout,
		Logger:      a.log(),
		Revision:    a.revision(ctx),
		Deps: runner.RunDependencies{
			ProviderFactory: providerFactory(),
			Now:             now,
		},
	}
	var controller *live.Controller
	if a.ui.useLive {
		controller = live.Start(a.stdout, live.Options{NoColor: a.ui.noColor})
		params.Observer = controller
	}
	run, err := runner.RunTests(ctx, cfg, params)
	if controller != nil {
		controller.Close()
		controller.Wait()
	}
	if len(run.Rows) == 0 && err != nil {
		return fmt.Errorf("test %s: %w", cfg.Name, err)
	}

	printTestRun(a.stdout, run, a.ui.noColor)
	if failed := run.Failed(); failed > 0 {
		a.log().Warn("inputs failed", zap.Int("failed", failed), zap.Error(err))
		return fmt.Errorf("test %s: %d of %d inputs failed", cfg.Name, failed, len(run.Rows))
	}
	if err != nil {
		return fmt.Errorf("test %s: %w", cfg.Name, err)
	}
	return nil
}

// runEvals runs the configured evals. Matches fail the command only with
// --strict.
func (a *app) runEvals(ctx context.Context, cfg spec.Config) error {
	if len(cfg.Evals) == 0 {
		a.log().Warn("no evals configured")
		fmt.Fprintln(a.stdout, "No evals configured.")
		return nil
	}
	run, err := eval.RunEvals(ctx, cfg, eval.RunParams{
		Workspace: a.ws,
		Logger:    a.log(),
		Stdout:    a.stdout,
		NoColor:   a.ui.noColor,
	})
	if err != nil {
		return err
	}
	if n := run.Errors(); n > 0 {
		return fmt.Errorf("%d eval(s) could not read every file", n)
	}
	if n := run.Failures(); n > 0 && a.opts.strict {
		return fmt.Errorf("%d eval(s) found matches", n)
	}
	return nil
}

// revision describes the git work tree of the workdir. Runs outside a
// repository are recorded without provenance.
func (a *app) revision(ctx context.Context) vcs.Revision {
	rev, err := describeRevision(ctx, a.ws.Root)
	switch {
	case errors.Is(err, vcs.ErrNotRepository):
		a.log().Debug("workdir is not a git repository", zap.String("workdir", a.ws.Root))
	case err != nil:
		a.log().Warn("read git revision failed", zap.Error(err))
	default:
		a.log().Info("git revision", zap.String("commit", rev.Short()), zap.String("branch", rev.Branch), zap.Bool("dirty", rev.Dirty))
	}
	return rev
}
