package live

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"chainbench/internal/runner"
)

// feedBuffer bounds how many events may queue before new ones are dropped.
const feedBuffer = 256

// Controller drives the live UI from runner callbacks.
type Controller struct {
	mu     sync.Mutex
	feed   chan Event
	closed bool
	exited chan struct{}
}

// Start runs the live UI on out until Close or the run end event.
func Start(out io.Writer, opts Options) *Controller {
	c := &Controller{
		feed:   make(chan Event, feedBuffer),
		exited: make(chan struct{}),
	}
	program := tea.NewProgram(NewModel(c.feed, opts), tea.WithOutput(out), tea.WithInput(nil))
	go func() {
		defer close(c.exited)
		_, _ = program.Run()
	}()
	return c
}

// Close stops accepting events and lets the UI exit.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.feed)
}

// Wait blocks until the UI has exited.
func (c *Controller) Wait() {
	<-c.exited
}

func (c *Controller) OnRunStart(info runner.RunInfo) {
	c.forward(Event{Kind: EventRunStart, Run: info})
}

func (c *Controller) OnInputStart(event runner.InputEvent) {
	c.forward(Event{Kind: EventInputStart, Input: event})
}

func (c *Controller) OnStepStart(event runner.StepEvent) {
	c.forward(Event{Kind: EventStepStart, Step: event})
}

func (c *Controller) OnStepEnd(event runner.StepEvent) {
	c.forward(Event{Kind: EventStepEnd, Step: event})
}

func (c *Controller) OnInputEnd(event runner.InputEvent) {
	c.forward(Event{Kind: EventInputEnd, Input: event})
}

// OnRunEnd delivers the final event and closes the feed.
func (c *Controller) OnRunEnd(run runner.TestRun) {
	c.forward(Event{Kind: EventRunEnd, Done: run})
	c.Close()
}

// forward queues event without blocking the runner. Events after Close, or
// beyond the buffer, are dropped.
func (c *Controller) forward(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.feed <- event:
	default:
	}
}

var _ runner.RunObserver = (*Controller)(nil)
