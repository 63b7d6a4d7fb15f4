package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chainbench/internal/config"
	"chainbench/internal/model"
	"chainbench/internal/runner"
	"chainbench/internal/vcs"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Environment variables read by the CLI.
const (
	envConfig   = "TEST_CONFIG"
	envTestName = "TEST_NAME"
	envProvider = "LLM_PROVIDER"
)

// Test seams.
var (
	getenv          = os.Getenv
	now             = time.Now
	providerFactory = func() runner.ProviderFactory {
		return model.NewRegistry(os.Getenv, nil).Provider
	}
	describeRevision = vcs.Describe
)

// exitError carries a process exit code. A nil err means the failure was
// already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// failure marks err as a runtime failure rather than a usage error.
func failure(err error) error {
	return &exitError{code: ExitError, err: err}
}

// errReported fails the command without printing anything more.
var errReported = &exitError{code: ExitError}

// globalOptions holds the persistent flags.
type globalOptions struct {
	workdir     string
	runName     string
	verbose     bool
	logFormat   string
	logFile     string
	ui          string
	noColor     bool
	concurrency int
	timeout     time.Duration
	strict      bool
}

// app is the state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	opts   globalOptions

	ws       config.Workspace
	ui       uiModeDecision
	logger   *zap.Logger
	closeLog func()
}

// Run executes the CLI and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, args, stdout, stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return ExitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exit.err)
		}
		return exit.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.Name())
	return ExitUsage
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chainbench [config-path]",
		Short: "Run prompt chains against language models and evaluate their outputs",
		Long: `chainbench feeds every configured input through an ordered chain of
model calls, writes each response and a results CSV under outputs/, and runs
pattern-search evals over those outputs.

Without a mode the test pipeline runs. The config path falls back to
$TEST_CONFIG.`,
		Args:              configArg,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMode(cmd.Context(), config.ModeTest, args)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.workdir, "workdir", "", "Directory holding inputs/ and outputs/ (default: current directory)")
	flags.StringVar(&a.opts.runName, "run-name", "", "Sub-directory for this run's outputs (default: $TEST_NAME)")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&a.opts.logFormat, "log-format", "console", "Log format: console|json")
	flags.StringVar(&a.opts.logFile, "log-file", "", "Write logs to this file instead of stderr")
	flags.StringVar(&a.opts.ui, "ui", uiAuto, "Progress display: auto|live|plain")
	flags.BoolVar(&a.opts.noColor, "no-color", false, "Disable colored output")
	flags.IntVar(&a.opts.concurrency, "concurrency", 0, "Inputs to run at once (default: config value or 1)")
	flags.DurationVar(&a.opts.timeout, "timeout", 0, "Model call timeout (default: config value or 10m)")
	flags.BoolVar(&a.opts.strict, "strict", false, "Exit non-zero when an eval finds matches")

	root.AddCommand(
		newModeCmd(a, config.ModeTest, "Run every input through the step chain"),
		newModeCmd(a, config.ModeEval, "Run the configured evals over existing outputs"),
		newModeCmd(a, config.ModeFull, "Run the step chain, then the evals"),
		newValidateCmd(a),
		newInitCmd(a),
		newSchemaCmd(a),
	)
	return root
}

func newModeCmd(a *app, mode config.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode) + " [config-path]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMode(cmd.Context(), mode, args)
		},
	}
}

// setup resolves the workspace, loads .env and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	ws, err := config.NewWorkspace(a.opts.workdir, "")
	if err != nil {
		return err
	}
	if err := loadDotEnv(ws.Root); err != nil {
		return failure(err)
	}
	runName := a.opts.runName
	if runName == "" {
		runName = getenv(envTestName)
	}
	if a.ws, err = config.NewWorkspace(ws.Root, runName); err != nil {
		return err
	}

	a.ui, err = resolveUIMode(a.opts.ui, a.opts.verbose, a.opts.noColor, a.stdout)
	if err != nil {
		return err
	}
	if a.ui.warning != "" {
		fmt.Fprintln(a.stderr, a.ui.warning)
	}
	if a.opts.concurrency < 0 {
		return fmt.Errorf("--concurrency must be >= 0")
	}
	if a.opts.timeout < 0 {
		return fmt.Errorf("--timeout must be positive")
	}

	logger, closeLog, err := newLogger(loggerOptions{
		format:  a.opts.logFormat,
		file:    a.opts.logFile,
		verbose: a.opts.verbose,
		silent:  a.ui.useLive && a.opts.logFile == "",
	}, a.stderr)
	if err != nil {
		return err
	}
	a.logger = logger.With(zap.String("command", cmd.Name()))
	a.closeLog = closeLog
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.closeLog != nil {
		a.closeLog()
	}
}

func (a *app) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}
