package live

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// defaultColumns returns the input table columns at a default width.
func defaultColumns() []table.Column {
	return columnsForWidth(100)
}

// columnsForWidth sizes the name column to the available width.
func columnsForWidth(width int) []table.Column {
	const fixed = 4 + 10 + 20 + 8 + 10
	nameWidth := max(width-fixed-12, 12)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Input", Width: nameWidth},
		{Title: "Status", Width: 10},
		{Title: "Step", Width: 20},
		{Title: "Steps", Width: 8},
		{Title: "Latency", Width: 10},
	}
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	if noColor {
		return table.DefaultStyles()
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// rowsForState converts UI state into table rows.
func rowsForState(state State, now time.Time, noColor bool) []table.Row {
	rows := make([]table.Row, 0, len(state.Rows))
	for _, row := range state.Rows {
		rows = append(rows, table.Row{
			formatIndex(row.Index),
			formatName(row.Name),
			formatStatus(row, noColor),
			row.CurrentStep,
			formatProgress(row.StepsDone, state.StepsTotal),
			formatRowDuration(row, now),
		})
	}
	return rows
}
