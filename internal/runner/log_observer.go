package runner

import (
	"go.uber.org/zap"
)

// logObserver writes lifecycle events to a zap logger.
type logObserver struct {
	logger *zap.Logger
}

func newLogObserver(logger *zap.Logger) logObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logObserver{logger: logger}
}

func (o logObserver) OnRunStart(info RunInfo) {
	o.logger.Info("test run started",
		zap.String("run_id", info.RunID),
		zap.String("config", info.ConfigName),
		zap.String("output_dir", info.OutputDir),
		zap.Int("inputs", len(info.Inputs)),
		zap.Int("steps", len(info.Steps)),
	)
}

func (o logObserver) OnInputStart(event InputEvent) {
	o.logger.Debug("input started", zap.String("input", event.Name), zap.Int("index", event.Index))
}

func (o logObserver) OnStepStart(event StepEvent) {
	o.logger.Debug("step started",
		zap.String("input", event.InputName),
		zap.Int("step", event.Step),
		zap.String("step_name", event.StepName),
		zap.String("model", event.Model),
	)
}

func (o logObserver) OnStepEnd(event StepEvent) {
	fields := []zap.Field{
		zap.String("input", event.InputName),
		zap.Int("step", event.Step),
		zap.String("step_name", event.StepName),
		zap.String("model", event.Model),
		zap.Duration("latency", event.Latency),
	}
	if event.Error != "" {
		o.logger.Error("step failed", append(fields, zap.String("error", event.Error))...)
		return
	}
	o.logger.Info("step completed", fields...)
}

func (o logObserver) OnInputEnd(event InputEvent) {
	fields := []zap.Field{
		zap.String("input", event.Name),
		zap.Int("steps_completed", len(event.Row.Steps)),
		zap.Float64("total_latency_sec", event.Row.TotalLatencySec),
	}
	if event.Error != "" {
		o.logger.Warn("input aborted", append(fields, zap.String("error", event.Error))...)
		return
	}
	o.logger.Debug("input completed", fields...)
}

func (o logObserver) OnRunEnd(run TestRun) {
	o.logger.Info("test run finished",
		zap.String("run_id", run.RunID),
		zap.Int("inputs", len(run.Rows)),
		zap.Int("failed", run.Failed()),
		zap.Duration("wall_time", run.FinishedAt.Sub(run.StartedAt)),
	)
}
