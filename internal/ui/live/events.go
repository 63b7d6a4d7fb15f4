package live

import "chainbench/internal/runner"

// EventKind identifies the type of live UI event.
type EventKind int

const (
	// EventRunStart signals the start of a run.
	EventRunStart EventKind = iota
	// EventInputStart signals an input began.
	EventInputStart
	// EventStepStart signals a step began.
	EventStepStart
	// EventStepEnd signals a step finished.
	EventStepEnd
	// EventInputEnd signals an input finished.
	EventInputEnd
	// EventRunEnd signals run completion.
	EventRunEnd
)

// Event carries a UI update payload. Only the field matching Kind is set.
type Event struct {
	Kind  EventKind
	Run   runner.RunInfo
	Input runner.InputEvent
	Step  runner.StepEvent
	Done  runner.TestRun
}
