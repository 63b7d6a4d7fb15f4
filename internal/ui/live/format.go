package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// formatIndex formats an input index.
func formatIndex(index int) string {
	return pad2(index + 1)
}

// pad2 left-pads a number to two digits when needed.
func pad2(value int) string {
	if value >= 10 {
		return fmtInt(value)
	}
	return "0" + fmtInt(value)
}

// fmtInt converts an int to string.
func fmtInt(value int) string {
	return strconv.Itoa(value)
}

// formatName collapses whitespace and truncates input names for display.
func formatName(name string) string {
	normalized := strings.Join(strings.Fields(name), " ")
	const limit = 60
	runes := []rune(normalized)
	if len(runes) <= limit {
		return normalized
	}
	return string(runes[:limit-3]) + "..."
}

// formatProgress renders completed steps out of the total.
func formatProgress(done, total int) string {
	if total <= 0 {
		return fmtInt(done)
	}
	return fmtInt(done) + "/" + fmtInt(total)
}

// formatStatus renders a colored status label for a row.
func formatStatus(row InputRow, noColor bool) string {
	label := string(row.Status)
	if noColor {
		return label
	}
	return statusStyle(row.Status).Render(label)
}

// formatRowDuration returns the model latency of a finished row, or the
// wall time so far of a running one.
func formatRowDuration(row InputRow, now time.Time) string {
	switch {
	case !row.FinishedAt.IsZero():
		return formatDuration(row.Latency)
	case !row.StartedAt.IsZero():
		return now.Sub(row.StartedAt).Round(100 * time.Millisecond).String()
	default:
		return ""
	}
}

// statusStyle selects a style for a given status.
func statusStyle(status InputStatus) lipgloss.Style {
	color := lipgloss.Color("246")
	switch status {
	case InputDone:
		color = lipgloss.Color("42")
	case InputFailed:
		color = lipgloss.Color("196")
	case InputRunning:
		color = lipgloss.Color("33")
	}
	return lipgloss.NewStyle().Foreground(color)
}
