package live

import (
	"fmt"
	"time"

	"chainbench/internal/runner"
)

// Reduce applies a runner event to the UI state.
func Reduce(state State, event Event) State {
	switch event.Kind {
	case EventRunStart:
		return startRun(state, event.Run)
	case EventInputStart:
		state = ensureRow(state, event.Input.Index, event.Input.Name)
		row := state.Rows[event.Input.Index]
		row.Status = InputRunning
		if row.StartedAt.IsZero() {
			row.StartedAt = event.Input.EmittedAt
		}
		state.Rows[event.Input.Index] = row
		state.LastEvent = fmt.Sprintf("%s started", event.Input.Name)
	case EventStepStart:
		state = ensureRow(state, event.Step.InputIndex, event.Step.InputName)
		row := state.Rows[event.Step.InputIndex]
		row.Status = InputRunning
		row.CurrentStep = event.Step.StepName
		state.Rows[event.Step.InputIndex] = row
	case EventStepEnd:
		state = applyStepEnd(state, event.Step)
	case EventInputEnd:
		state = applyInputEnd(state, event.Input)
	case EventRunEnd:
		state.FinishedAt = event.Done.FinishedAt
		state.LastEvent = formatRunEnd(event.Done)
	}
	state.Counts = recount(state.Rows)
	return state
}

// startRun resets the state and queues every planned input.
func startRun(state State, info runner.RunInfo) State {
	state = State{
		RunID:      info.RunID,
		ConfigName: info.ConfigName,
		OutputDir:  info.OutputDir,
		StepsTotal: len(info.Steps),
		StartedAt:  info.StartedAt,
		Rows:       make([]InputRow, len(info.Inputs)),
	}
	for i, name := range info.Inputs {
		state.Rows[i] = InputRow{Index: i, Name: name, Status: InputQueued}
	}
	state.Counts = recount(state.Rows)
	return state
}

// ensureRow grows the state rows to include the target index.
func ensureRow(state State, index int, name string) State {
	if index < 0 {
		return state
	}
	if index >= len(state.Rows) {
		rows := make([]InputRow, index+1)
		copy(rows, state.Rows)
		for i := len(state.Rows); i < len(rows); i++ {
			rows[i] = InputRow{Index: i, Status: InputQueued}
		}
		state.Rows = rows
	}
	if state.Rows[index].Name == "" {
		state.Rows[index].Name = name
	}
	return state
}

// applyStepEnd records a finished or failed step.
func applyStepEnd(state State, event runner.StepEvent) State {
	state = ensureRow(state, event.InputIndex, event.InputName)
	if event.InputIndex < 0 {
		return state
	}
	row := state.Rows[event.InputIndex]
	if event.Error != "" {
		row.Error = event.Error
		state.LastEvent = fmt.Sprintf("%s/%s failed: %s", event.InputName, event.StepName, event.Error)
	} else {
		row.StepsDone++
		row.Latency += event.Latency
		state.LastEvent = fmt.Sprintf("%s/%s done (%s)", event.InputName, event.StepName, formatDuration(event.Latency))
	}
	state.Rows[event.InputIndex] = row
	return state
}

// applyInputEnd marks an input as finished.
func applyInputEnd(state State, event runner.InputEvent) State {
	state = ensureRow(state, event.Index, event.Name)
	if event.Index < 0 {
		return state
	}
	row := state.Rows[event.Index]
	row.CurrentStep = ""
	row.FinishedAt = event.EmittedAt
	if event.Error != "" {
		row.Status = InputFailed
		row.Error = event.Error
	} else {
		row.Status = InputDone
	}
	state.Rows[event.Index] = row
	return state
}

// recount recomputes status counts for the current rows.
func recount(rows []InputRow) StatusCounts {
	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case InputQueued:
			counts.Queued++
		case InputRunning:
			counts.Running++
		case InputDone:
			counts.Done++
		case InputFailed:
			counts.Failed++
		}
	}
	return counts
}

// formatRunEnd creates the footer message for a finished run.
func formatRunEnd(run runner.TestRun) string {
	failed := run.Failed()
	if failed > 0 {
		return fmt.Sprintf("Run finished: %d of %d inputs failed", failed, len(run.Rows))
	}
	return fmt.Sprintf("Run finished: %d inputs", len(run.Rows))
}

// formatDuration renders a rounded duration for display.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	return duration.Round(10 * time.Millisecond).String()
}
