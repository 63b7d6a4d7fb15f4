package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chainbench/internal/spec"
)

const baseYAML = `config:
  name: summarize
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
        modelId: ibm/granite-13b-chat-v2
        parameters:
          max_new_tokens: 200
      input:
        prompt:
          name: prompt
          value: "Summarize: {text}"
`

func validConfig() spec.Config {
	return spec.Config{
		Name:     "summarize",
		Provider: "watsonx",
		Timeout:  "10m",
		Input: []spec.InputCase{{
			Name: "doc1",
			Vars: []spec.VariableSpec{{Name: "text", Type: "textfile", Value: "doc1.md"}},
		}},
		Steps: []spec.StepConfig{{
			Name:        "summarize",
			Step:        1,
			ModelConfig: spec.ModelConfig{Provider: "watsonx", ModelID: "ibm/granite-13b-chat-v2"},
			Input:       spec.StepInput{Prompt: spec.VariableSpec{Name: "prompt", Type: "string", Value: "Summarize: {text}"}},
		}},
	}
}

func issueFields(t *testing.T, err error) []string {
	t.Helper()
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}
	return fields
}

func containsField(fields []string, want string) bool {
	for _, field := range fields {
		if field == want {
			return true
		}
	}
	return false
}

// TestLoadBytesNormalizes verifies defaults are filled from the fallback provider.
func TestLoadBytesNormalizes(t *testing.T) {
	cfg, err := LoadBytes([]byte(baseYAML), LoadOptions{Mode: ModeTest, DefaultProvider: "watsonx"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != "watsonx" || cfg.Steps[0].ModelConfig.Provider != "watsonx" {
		t.Fatalf("expected provider fallback, got %q / %q", cfg.Provider, cfg.Steps[0].ModelConfig.Provider)
	}
	if cfg.Steps[0].Input.Prompt.Type != "string" {
		t.Fatalf("expected prompt type default, got %q", cfg.Steps[0].Input.Prompt.Type)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Fatalf("expected default timeout, got %q", cfg.Timeout)
	}
}

// TestLoadReadsFile verifies Load reads from disk.
func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainbench.yml")
	if err := os.WriteFile(path, []byte(baseYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path, LoadOptions{Mode: ModeTest, DefaultProvider: "openrouter"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml"), LoadOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
}

// TestLoadBytesSchemaErrors verifies schema violations are reported by location.
func TestLoadBytesSchemaErrors(t *testing.T) {
	data := strings.Replace(baseYAML, "step: 1", "step: 0", 1)
	data = strings.Replace(data, "type: textfile", "type: url", 1)
	_, err := LoadBytes([]byte(data), LoadOptions{Mode: ModeTest, DefaultProvider: "watsonx"})
	fields := issueFields(t, err)
	if !containsField(fields, "config.steps.0.step") {
		t.Fatalf("expected step issue, got %v", fields)
	}
	if !containsField(fields, "config.input.0.vars.0.type") {
		t.Fatalf("expected type issue, got %v", fields)
	}
}

// TestLoadBytesUnknownField verifies unknown keys are rejected.
func TestLoadBytesUnknownField(t *testing.T) {
	data := baseYAML + "  extra: true\n"
	if _, err := LoadBytes([]byte(data), LoadOptions{Mode: ModeTest, DefaultProvider: "watsonx"}); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

// TestValidateRequiresProvider verifies a step without any provider is rejected.
func TestValidateRequiresProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = ""
	cfg.Steps[0].ModelConfig.Provider = ""
	fields := issueFields(t, Validate(&cfg, ModeTest))
	if !containsField(fields, "config.steps[0].modelConfig.provider") {
		t.Fatalf("expected provider issue, got %v", fields)
	}
}

// TestValidateTestSections verifies test mode needs a name, inputs and steps.
func TestValidateTestSections(t *testing.T) {
	cfg := spec.Config{Timeout: "10m"}
	fields := issueFields(t, Validate(&cfg, ModeTest))
	for _, want := range []string{"config.name", "config.input", "config.steps"} {
		if !containsField(fields, want) {
			t.Fatalf("expected %s issue, got %v", want, fields)
		}
	}
	if err := Validate(&cfg, ModeEval); err != nil {
		t.Fatalf("eval mode should not require test sections: %v", err)
	}
}

// TestValidateDuplicates verifies duplicate input names and step indices.
func TestValidateDuplicates(t *testing.T) {
	cfg := validConfig()
	cfg.Input = append(cfg.Input, cfg.Input[0])
	cfg.Steps = append(cfg.Steps, cfg.Steps[0])
	fields := issueFields(t, Validate(&cfg, ModeTest))
	if !containsField(fields, "config.input.name") || !containsField(fields, "config.steps.step") {
		t.Fatalf("expected duplicate issues, got %v", fields)
	}
}

// TestValidateOutputVariablePlacement verifies output references only appear in step vars.
func TestValidateOutputVariablePlacement(t *testing.T) {
	cfg := validConfig()
	cfg.Input[0].Vars = append(cfg.Input[0].Vars, spec.VariableSpec{Name: "prev", Type: "output_variable", Value: "response"})
	cfg.Steps[0].Input.Prompt.Type = "output_variable"
	fields := issueFields(t, Validate(&cfg, ModeTest))
	if !containsField(fields, "config.input[0].vars[1].type") {
		t.Fatalf("expected input var issue, got %v", fields)
	}
	if !containsField(fields, "config.steps[0].input.prompt.type") {
		t.Fatalf("expected prompt issue, got %v", fields)
	}
}

// TestValidateTimeout verifies invalid durations are rejected.
func TestValidateTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Timeout = "soon"
	fields := issueFields(t, Validate(&cfg, ModeTest))
	if !containsField(fields, "config.timeout") {
		t.Fatalf("expected timeout issue, got %v", fields)
	}
}

// TestValidateEvalNames verifies evals need a name.
func TestValidateEvalNames(t *testing.T) {
	cfg := spec.Config{Timeout: "1m", Evals: []spec.EvalConfig{{SearchPath: "x"}}}
	fields := issueFields(t, Validate(&cfg, ModeEval))
	if !containsField(fields, "config.evals[0].name") {
		t.Fatalf("expected eval name issue, got %v", fields)
	}
}

// TestGenerateJSONSchema verifies the schema is produced from the config types.
func TestGenerateJSONSchema(t *testing.T) {
	data, err := GenerateJSONSchema()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, want := range []string{"modelConfig", "searchPath", "requests_per_minute"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected schema to mention %s", want)
		}
	}
}
