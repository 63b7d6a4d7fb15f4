package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"chainbench/internal/runner"
)

// printTestRun writes one table row per input and the results path.
func printTestRun(w io.Writer, run runner.TestRun, noColor bool) {
	if len(run.Rows) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Input", "Status", "Steps", "Latency (s)", "Error"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range run.Rows {
		status := "ok"
		if row.Failed() {
			status = "failed"
		}
		table.Append([]string{
			row.InputName,
			status,
			strconv.Itoa(len(row.Steps)),
			strconv.FormatFloat(row.TotalLatencySec, 'f', 2, 64),
			truncate(row.Error, 60),
		})
	}
	table.Render()

	loc := runner.OutputLocation{Dir: run.OutputDir, TestName: run.ConfigName}
	line := fmt.Sprintf("Run %s: %d inputs, %d failed", run.RunID, len(run.Rows), run.Failed())
	color := lipgloss.Color("42")
	if run.Failed() > 0 {
		color = lipgloss.Color("196")
	}
	if !noColor {
		line = lipgloss.NewStyle().Foreground(color).Render(line)
	}
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Results: %s\n", loc.ResultsPath())
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
