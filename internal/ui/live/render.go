package live

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the run header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	line := "Run " + state.RunID
	if state.ConfigName != "" {
		line += " | Test: " + state.ConfigName
	}
	if elapsed := formatElapsed(state, now); elapsed != "" {
		line += " | Elapsed: " + elapsed
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderSummary renders the status counts line.
func renderSummary(state State, noColor bool) string {
	counts := state.Counts
	line := "Queued: " + fmtInt(counts.Queued) +
		" Running: " + fmtInt(counts.Running) +
		" Done: " + fmtInt(counts.Done) +
		" Failed: " + fmtInt(counts.Failed) +
		" Steps: " + fmtInt(state.StepsTotal)
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderOutputLine renders where results are written.
func renderOutputLine(state State, noColor bool) string {
	if state.OutputDir == "" {
		return ""
	}
	return stylize("Output: "+state.OutputDir, noColor, lipgloss.Color("240"))
}

// renderFooter renders the last event line.
func renderFooter(state State, noColor bool) string {
	if state.LastEvent == "" {
		return ""
	}
	return stylize("Last event: "+state.LastEvent, noColor, lipgloss.Color("244"))
}

func formatElapsed(state State, now time.Time) string {
	if state.StartedAt.IsZero() {
		return ""
	}
	end := now
	if !state.FinishedAt.IsZero() {
		end = state.FinishedAt
	}
	return end.Sub(state.StartedAt).Round(100 * time.Millisecond).String()
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
