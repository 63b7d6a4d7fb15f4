package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace directory names.
const (
	InputsDirName  = "inputs"
	OutputsDirName = "outputs"
)

// Workspace locates inputs and outputs under a working directory. The run
// name is fixed when the workspace is built.
type Workspace struct {
	Root    string
	RunName string
}

// NewWorkspace resolves root to an absolute path. An empty root is the
// current directory.
func NewWorkspace(root, runName string) (Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Workspace{}, fmt.Errorf("get working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve workdir: %w", err)
	}
	runName = strings.TrimSpace(runName)
	if strings.ContainsAny(runName, `/\`) {
		return Workspace{}, fmt.Errorf("run name %q cannot contain path separators", runName)
	}
	return Workspace{Root: abs, RunName: runName}, nil
}

// InputsDir returns the directory file references and rulesets are read from.
func (w Workspace) InputsDir() string {
	return filepath.Join(w.Root, InputsDirName)
}

// OutputsDir returns the root of all test outputs.
func (w Workspace) OutputsDir() string {
	return filepath.Join(w.Root, OutputsDirName)
}

// TestOutputDir returns the output directory for a test: the test name,
// then the run name when one is set.
func (w Workspace) TestOutputDir(testName string) string {
	dir := filepath.Join(w.OutputsDir(), testName)
	if w.RunName != "" {
		dir = filepath.Join(dir, w.RunName)
	}
	return dir
}

// InputPath resolves a path relative to the inputs directory.
func (w Workspace) InputPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.InputsDir(), path)
}

// OutputPath resolves a path relative to the outputs directory.
func (w Workspace) OutputPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.OutputsDir(), path)
}
