package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigName is the config file written by Scaffold.
const DefaultConfigName = "chainbench.yml"

const defaultConfig = `config:
  name: summarize
  provider: openrouter
  timeout: 10m
  input:
    - name: doc1
      vars:
        - name: text
          type: textfile
          value: doc1.md
  steps:
    - name: summarize
      step: 1
      modelConfig:
        modelId: openai/gpt-4.1-mini
        parameters:
          temperature: 0
      input:
        prompt:
          name: prompt
          type: string
          value: "Summarize the following text in one sentence: {text}"
    - name: translate
      step: 2
      modelConfig:
        modelId: openai/gpt-4.1-mini
      input:
        prompt:
          name: prompt
          type: string
          value: "Translate to French: {summary}"
        vars:
          - name: summary
            type: output_variable
            value: response
  evals:
    - name: pattern-search
      searchPath: summarize
      ruleset: patterns.csv
      rulesetType: csvfile
`

const defaultDocument = `A cat sat on a mat and watched the rain fall on the garden.
`

const defaultPatterns = `pattern
\bchat\b
password
`

// Scaffold writes a starter config plus sample inputs into dir. Existing
// files are never overwritten.
func Scaffold(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	configPath := filepath.Join(dir, DefaultConfigName)
	inputsDir := filepath.Join(dir, InputsDirName)
	files := []struct {
		path    string
		content string
	}{
		{configPath, defaultConfig},
		{filepath.Join(inputsDir, "doc1.md"), defaultDocument},
		{filepath.Join(inputsDir, "patterns.csv"), defaultPatterns},
	}
	for _, file := range files {
		if info, err := os.Stat(file.path); err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("path %q is a directory", file.path)
			}
			return "", fmt.Errorf("file already exists at %q", file.path)
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat %s: %w", file.path, err)
		}
	}
	if err := os.MkdirAll(inputsDir, 0o755); err != nil {
		return "", fmt.Errorf("create inputs dir: %w", err)
	}
	for _, file := range files {
		if err := os.WriteFile(file.path, []byte(file.content), 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", filepath.Base(file.path), err)
		}
	}
	return configPath, nil
}
