package eval

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
)

// Reporter prints eval results for people.
type Reporter struct {
	out     io.Writer
	noColor bool
}

// NewReporter writes to out, with ANSI colors unless noColor is set.
func NewReporter(out io.Writer, noColor bool) *Reporter {
	return &Reporter{out: out, noColor: noColor}
}

// File prints the line for one file report.
func (r *Reporter) File(report FileReport) {
	fmt.Fprintln(r.out, r.stylize(FormatFileReport(report), lineColor(report)))
}

// Error prints a failed eval.
func (r *Reporter) Error(name string, err error) {
	fmt.Fprintln(r.out, r.stylize(fmt.Sprintf("⚠️ %s: %v", name, err), lipgloss.Color("208")))
}

// Summary prints one table row per eval.
func (r *Reporter) Summary(run Run) {
	if len(run.Results) == 0 {
		return
	}
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Eval", "Status", "Files", "Matched", "Errors"})
	table.SetAutoFormatHeaders(false)
	for _, result := range run.Results {
		files, matched, failed := countReports(result.Reports)
		table.Append([]string{
			result.Name,
			string(result.Status),
			strconv.Itoa(files),
			strconv.Itoa(matched),
			strconv.Itoa(failed),
		})
	}
	table.Render()
}

// FormatFileReport renders the plain report line of one file.
func FormatFileReport(report FileReport) string {
	name := filepath.Base(report.File)
	if report.Err != nil {
		return fmt.Sprintf("⚠️ %s: %v", name, report.Err)
	}
	if !report.HasMatches {
		return fmt.Sprintf("✅ %s: No matches!", name)
	}
	parts := make([]string, 0, len(report.Matches))
	for _, match := range report.Matches {
		parts = append(parts, fmt.Sprintf("Pattern '%s' found at : %s", match.Pattern, formatPositions(match.Positions)))
	}
	return fmt.Sprintf("❌ %s: %s", name, strings.Join(parts, "; "))
}

func formatPositions(positions []Position) string {
	parts := make([]string, 0, len(positions))
	for _, pos := range positions {
		parts = append(parts, fmt.Sprintf("Ln %d, Col %d", pos.Line, pos.Column))
	}
	return strings.Join(parts, ", ")
}

func countReports(reports []FileReport) (files, matched, failed int) {
	for _, report := range reports {
		files++
		switch {
		case report.Err != nil:
			failed++
		case report.HasMatches:
			matched++
		}
	}
	return files, matched, failed
}

func lineColor(report FileReport) lipgloss.Color {
	switch {
	case report.Err != nil:
		return lipgloss.Color("208")
	case report.HasMatches:
		return lipgloss.Color("196")
	default:
		return lipgloss.Color("42")
	}
}

func (r *Reporter) stylize(text string, color lipgloss.Color) string {
	if r.noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
