package runner

import (
	"fmt"
	"path/filepath"
	"strings"

	"chainbench/internal/config"
	"chainbench/internal/results"
)

// OutputLocation describes filesystem locations for one test's outputs.
type OutputLocation struct {
	Dir      string
	TestName string
}

// NewOutputLocation resolves the output directory of testName in ws.
func NewOutputLocation(ws config.Workspace, testName string) (OutputLocation, error) {
	if strings.TrimSpace(testName) == "" {
		return OutputLocation{}, fmt.Errorf("test name is empty")
	}
	return OutputLocation{Dir: ws.TestOutputDir(testName), TestName: testName}, nil
}

// ResponsePath returns the file holding the raw response of one step.
func (o OutputLocation) ResponsePath(modelID, inputName, stepName string) string {
	name := fmt.Sprintf("%s-%s-%s-response.txt",
		results.SafeFilename(modelID), results.SafeFilename(inputName), results.SafeFilename(stepName))
	return filepath.Join(o.Dir, name)
}

// ResultsPath returns the path to the results CSV.
func (o OutputLocation) ResultsPath() string {
	return filepath.Join(o.Dir, results.SafeFilename(o.TestName)+"-results.csv")
}

// DatabasePath returns the path to the DuckDB results store.
func (o OutputLocation) DatabasePath() string {
	return filepath.Join(o.Dir, "results.duckdb")
}

// MetricsPath returns the path to the Prometheus textfile.
func (o OutputLocation) MetricsPath() string {
	return filepath.Join(o.Dir, "metrics.prom")
}
