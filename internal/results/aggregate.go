package results

import (
	"fmt"
	"sort"
	"time"
)

// StepColumns holds the per-step values of an aggregated row.
type StepColumns struct {
	ModelName   string
	ModelParams string
	LatencySec  string
	Response    string
}

// AggregatedRow is one row of the results table: a single input across all steps.
type AggregatedRow struct {
	InputName       string
	ConfigName      string
	TotalLatencySec float64
	Steps           map[int]StepColumns
	Error           string
}

// Aggregate folds the step log of one input into a row. The log may be
// partial when a step failed.
func Aggregate(inputName, configName string, log []StepResult) AggregatedRow {
	row := AggregatedRow{
		InputName:  inputName,
		ConfigName: configName,
		Steps:      make(map[int]StepColumns, len(log)),
	}
	var total time.Duration
	for _, result := range log {
		total += result.Latency
		row.Steps[result.Step] = StepColumns{
			ModelName:   result.ShortModelName,
			ModelParams: result.ModelParams,
			LatencySec:  FormatLatency(result.Latency),
			Response:    result.Response,
		}
	}
	row.TotalLatencySec = Seconds(total)
	return row
}

// StepIndices returns the row's step indices in ascending order.
func (r AggregatedRow) StepIndices() []int {
	indices := make([]int, 0, len(r.Steps))
	for index := range r.Steps {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

// Failed reports whether the input stopped before completing every step.
func (r AggregatedRow) Failed() bool {
	return r.Error != ""
}

// Seconds converts a duration to fractional seconds.
func Seconds(d time.Duration) float64 {
	return float64(d) / float64(time.Second)
}

// FormatLatency renders a step latency in seconds with two decimals.
func FormatLatency(d time.Duration) string {
	return fmt.Sprintf("%.2f", Seconds(d))
}
