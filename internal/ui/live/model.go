package live

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultRefresh = 200 * time.Millisecond

// Options configures the live UI.
type Options struct {
	NoColor bool
	// Refresh is how often elapsed times are redrawn.
	Refresh time.Duration
}

// Model is the Bubble Tea model of a test run: a header, an overall
// progress bar and one table row per input.
type Model struct {
	opts   Options
	feed   <-chan Event
	state  State
	now    time.Time
	inputs table.Model
	bar    progress.Model
}

// NewModel builds a model that consumes feed until a run end event.
func NewModel(feed <-chan Event, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = defaultRefresh
	}
	inputs := table.New(table.WithColumns(defaultColumns()), table.WithFocused(false))
	inputs.SetStyles(tableStyles(opts.NoColor))

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	if opts.NoColor {
		bar = progress.New(progress.WithFillCharacters('#', '.'), progress.WithWidth(40))
	}
	return Model{
		opts:   opts,
		feed:   feed,
		now:    time.Now(),
		inputs: inputs,
		bar:    bar,
	}
}

// State returns the reduced run state.
func (m Model) State() State {
	return m.state
}

// Init listens for the first event and starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(listen(m.feed), refresh(m.opts.Refresh))
}

// Update folds run events and refreshes into the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.state = Reduce(m.state, msg.Event)
		m.syncRows()
		if msg.Event.Kind == EventRunEnd {
			return m, tea.Quit
		}
		return m, listen(m.feed)
	case refreshMsg:
		m.now = time.Time(msg)
		m.syncRows()
		return m, refresh(m.opts.Refresh)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	}
	return m, nil
}

// View renders header, progress, table and the last event.
func (m Model) View() string {
	var b strings.Builder
	for _, line := range []string{
		renderHeader(m.state, m.now, m.opts.NoColor),
		renderSummary(m.state, m.opts.NoColor),
		m.bar.ViewAs(completion(m.state)),
		renderOutputLine(m.state, m.opts.NoColor),
		m.inputs.View(),
		renderFooter(m.state, m.opts.NoColor),
	} {
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) syncRows() {
	m.inputs.SetRows(rowsForState(m.state, m.now, m.opts.NoColor))
}

func (m *Model) resize(width, height int) {
	m.inputs.SetColumns(columnsForWidth(width))
	m.inputs.SetWidth(width)
	m.inputs.SetHeight(max(height-6, 1))
	m.bar.Width = max(min(width-4, 60), 10)
}

// completion is the finished share of inputs, failed ones included.
func completion(state State) float64 {
	if len(state.Rows) == 0 {
		return 0
	}
	finished := state.Counts.Done + state.Counts.Failed
	return float64(finished) / float64(len(state.Rows))
}

// EventMsg delivers one run event to the model.
type EventMsg struct {
	Event Event
}

type refreshMsg time.Time

// listen waits for the next event. A closed feed ends the program.
func listen(feed <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-feed
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: event}
	}
}

func refresh(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg { return refreshMsg(t) })
}
