package spec

// Document is the top-level YAML file. Every setting lives under "config".
type Document struct {
	Config Config `yaml:"config" json:"config"`
}

// Config describes one prompt-chain test and the evals run over its outputs.
type Config struct {
	Name              string       `yaml:"name" json:"name,omitempty"`
	Provider          string       `yaml:"provider" json:"provider,omitempty"`
	Timeout           string       `yaml:"timeout" json:"timeout,omitempty"`
	Concurrency       int          `yaml:"concurrency" json:"concurrency,omitempty" jsonschema:"minimum=0"`
	RequestsPerMinute int          `yaml:"requests_per_minute" json:"requests_per_minute,omitempty" jsonschema:"minimum=0"`
	ResultsDB         bool         `yaml:"results_db" json:"results_db,omitempty"`
	Metrics           bool         `yaml:"metrics" json:"metrics,omitempty"`
	Input             []InputCase  `yaml:"input" json:"input,omitempty"`
	Steps             []StepConfig `yaml:"steps" json:"steps,omitempty"`
	Evals             []EvalConfig `yaml:"evals" json:"evals,omitempty"`
}

// InputCase is one named set of variables fed through every step.
type InputCase struct {
	Name string         `yaml:"name" json:"name"`
	Vars []VariableSpec `yaml:"vars" json:"vars,omitempty"`
}

// VariableSpec is the raw form of a variable before it is typed.
type VariableSpec struct {
	Name  string `yaml:"name" json:"name,omitempty"`
	Type  string `yaml:"type" json:"type,omitempty" jsonschema:"enum=string,enum=literal,enum=textfile,enum=file,enum=output_variable,enum=output"`
	Value string `yaml:"value" json:"value"`
}

// StepConfig is one model call in the chain.
type StepConfig struct {
	Name        string      `yaml:"name" json:"name"`
	Step        int         `yaml:"step" json:"step" jsonschema:"minimum=1"`
	ModelConfig ModelConfig `yaml:"modelConfig" json:"modelConfig"`
	Input       StepInput   `yaml:"input" json:"input"`
}

// ModelConfig selects the model and its opaque generation parameters.
type ModelConfig struct {
	Provider   string         `yaml:"provider" json:"provider,omitempty"`
	ModelID    string         `yaml:"modelId" json:"modelId"`
	Parameters map[string]any `yaml:"parameters" json:"parameters,omitempty"`
}

// StepInput carries the prompt template and step-scoped variables.
type StepInput struct {
	Prompt VariableSpec   `yaml:"prompt" json:"prompt"`
	Vars   []VariableSpec `yaml:"vars" json:"vars,omitempty"`
}

// EvalConfig selects an eval by name and points it at outputs and a ruleset.
type EvalConfig struct {
	Name        string `yaml:"name" json:"name"`
	SearchPath  string `yaml:"searchPath" json:"searchPath,omitempty"`
	Ruleset     string `yaml:"ruleset" json:"ruleset,omitempty"`
	RulesetType string `yaml:"rulesetType" json:"rulesetType,omitempty"`
}
