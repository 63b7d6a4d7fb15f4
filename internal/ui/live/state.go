package live

import "time"

// InputStatus is the display state of one input.
type InputStatus string

const (
	InputQueued  InputStatus = "queued"
	InputRunning InputStatus = "running"
	InputDone    InputStatus = "done"
	InputFailed  InputStatus = "failed"
)

// InputRow holds UI state for a single input.
type InputRow struct {
	Index       int
	Name        string
	Status      InputStatus
	CurrentStep string
	StepsDone   int
	Latency     time.Duration
	StartedAt   time.Time
	FinishedAt  time.Time
	Error       string
}

// StatusCounts aggregates inputs by status.
type StatusCounts struct {
	Queued  int
	Running int
	Done    int
	Failed  int
}

// State captures the live UI state for a test run.
type State struct {
	RunID      string
	ConfigName string
	OutputDir  string
	StepsTotal int
	StartedAt  time.Time
	FinishedAt time.Time
	LastEvent  string
	Rows       []InputRow
	Counts     StatusCounts
}
