package runner

import (
	"time"

	"chainbench/internal/results"
)

// RunInfo describes a run as it starts.
type RunInfo struct {
	RunID      string
	ConfigName string
	OutputDir  string
	Inputs     []string
	Steps      []string
	StartedAt  time.Time
}

// InputEvent reports the start or end of one input.
type InputEvent struct {
	Index     int
	Name      string
	Row       results.AggregatedRow
	Error     string
	EmittedAt time.Time
}

// StepEvent reports the start or end of one step of one input. Position is
// the zero-based place of the step in configured order.
type StepEvent struct {
	InputIndex int
	InputName  string
	Position   int
	Step       int
	StepName   string
	Model      string
	Latency    time.Duration
	Error      string
	EmittedAt  time.Time
}

// RunObserver receives run lifecycle events for UI or logging. Calls may
// arrive from several goroutines when inputs run concurrently.
type RunObserver interface {
	// OnRunStart signals the start of a run.
	OnRunStart(info RunInfo)
	// OnInputStart signals that an input began its first step.
	OnInputStart(event InputEvent)
	// OnStepStart signals a model call is about to be prepared.
	OnStepStart(event StepEvent)
	// OnStepEnd signals a step completed or failed.
	OnStepEnd(event StepEvent)
	// OnInputEnd signals an input finished, with its aggregated row.
	OnInputEnd(event InputEvent)
	// OnRunEnd signals run completion.
	OnRunEnd(run TestRun)
}

// multiObserver fans events out to several observers.
type multiObserver []RunObserver

// Observers combines observers, skipping nil entries.
func Observers(observers ...RunObserver) RunObserver {
	out := make(multiObserver, 0, len(observers))
	for _, observer := range observers {
		if observer != nil {
			out = append(out, observer)
		}
	}
	return out
}

func (m multiObserver) OnRunStart(info RunInfo) {
	for _, o := range m {
		o.OnRunStart(info)
	}
}

func (m multiObserver) OnInputStart(event InputEvent) {
	for _, o := range m {
		o.OnInputStart(event)
	}
}

func (m multiObserver) OnStepStart(event StepEvent) {
	for _, o := range m {
		o.OnStepStart(event)
	}
}

func (m multiObserver) OnStepEnd(event StepEvent) {
	for _, o := range m {
		o.OnStepEnd(event)
	}
}

func (m multiObserver) OnInputEnd(event InputEvent) {
	for _, o := range m {
		o.OnInputEnd(event)
	}
}

func (m multiObserver) OnRunEnd(run TestRun) {
	for _, o := range m {
		o.OnRunEnd(run)
	}
}
