package results

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Fixed leading columns of the results table.
const (
	ColumnInputName    = "inputName"
	ColumnConfigName   = "configName"
	ColumnTotalLatency = "totalLatencySec"
	ColumnError        = "error"
)

// Columns returns the header for rows: fixed columns, then step columns in
// ascending step order over the union of all rows.
func Columns(rows []AggregatedRow) []string {
	columns := []string{ColumnInputName, ColumnConfigName, ColumnTotalLatency, ColumnError}
	seen := map[int]struct{}{}
	var indices []int
	for _, row := range rows {
		for _, index := range row.StepIndices() {
			if _, ok := seen[index]; ok {
				continue
			}
			seen[index] = struct{}{}
			indices = append(indices, index)
		}
	}
	sort.Ints(indices)
	for _, n := range indices {
		columns = append(columns,
			fmt.Sprintf("step%dModelName", n),
			fmt.Sprintf("step%dModelParams", n),
			fmt.Sprintf("step%dLatencySec", n),
			fmt.Sprintf("step%dResponse", n),
		)
	}
	return columns
}

// Values returns the row as a column name to value map.
func (r AggregatedRow) Values() map[string]string {
	values := map[string]string{
		ColumnInputName:    r.InputName,
		ColumnConfigName:   r.ConfigName,
		ColumnTotalLatency: strconv.FormatFloat(r.TotalLatencySec, 'f', -1, 64),
		ColumnError:        r.Error,
	}
	for n, step := range r.Steps {
		values[fmt.Sprintf("step%dModelName", n)] = step.ModelName
		values[fmt.Sprintf("step%dModelParams", n)] = step.ModelParams
		values[fmt.Sprintf("step%dLatencySec", n)] = step.LatencySec
		values[fmt.Sprintf("step%dResponse", n)] = step.Response
	}
	return values
}

// Record renders the row in header order. Absent columns are empty.
func (r AggregatedRow) Record(columns []string) []string {
	values := r.Values()
	record := make([]string, len(columns))
	for i, column := range columns {
		record[i] = values[column]
	}
	return record
}

// WriteCSV writes a header and one record per row. Every field is quoted and
// text that a spreadsheet would evaluate as a formula is prefixed with a quote.
func WriteCSV(w io.Writer, rows []AggregatedRow) error {
	columns := Columns(rows)
	if err := writeRecord(w, columns, false); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRecord(w, row.Record(columns), true); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSVFile writes rows to path, replacing any previous file.
func WriteCSVFile(path string, rows []AggregatedRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results csv: %w", err)
	}
	if err := WriteCSV(file, rows); err != nil {
		file.Close()
		return fmt.Errorf("write results csv: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close results csv: %w", err)
	}
	return nil
}

func writeRecord(w io.Writer, fields []string, escape bool) error {
	var line strings.Builder
	for i, field := range fields {
		if i > 0 {
			line.WriteByte(',')
		}
		if escape {
			field = escapeFormula(field)
		}
		line.WriteByte('"')
		line.WriteString(strings.ReplaceAll(field, `"`, `""`))
		line.WriteByte('"')
	}
	line.WriteByte('\n')
	_, err := io.WriteString(w, line.String())
	return err
}

func escapeFormula(field string) string {
	if field == "" {
		return field
	}
	switch field[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + field
	}
	for _, prefix := range []string{"＝", "＋", "－", "＠"} {
		if strings.HasPrefix(field, prefix) {
			return "'" + field
		}
	}
	return field
}
