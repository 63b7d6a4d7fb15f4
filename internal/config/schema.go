package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"chainbench/internal/spec"
)

const schemaResource = "chainbench-config.json"

// GenerateJSONSchema produces a JSON Schema document for the config file.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	s := r.Reflect(&spec.Document{})
	s.Title = "chainbench config"
	s.Description = "Prompt-chain test and eval configuration"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

var compiledSchema = sync.OnceValues(func() (*sjsonschema.Schema, error) {
	data, err := GenerateJSONSchema()
	if err != nil {
		return nil, err
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource(schemaResource, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return sch, nil
})

// ValidateSchema checks a generically decoded YAML document against the
// config schema and returns one issue per failing location.
func ValidateSchema(raw any) []Issue {
	sch, err := compiledSchema()
	if err != nil {
		return []Issue{{Field: "schema", Message: err.Error()}}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return []Issue{{Field: "config", Message: fmt.Sprintf("convert document: %v", err)}}
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []Issue{{Field: "config", Message: fmt.Sprintf("convert document: %v", err)}}
	}
	if err := sch.Validate(doc); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return []Issue{{Field: "config", Message: err.Error()}}
		}
		var issues []Issue
		for _, cause := range flattenValidationErrors(ve) {
			field := strings.Join(cause.InstanceLocation, ".")
			if field == "" {
				field = "(root)"
			}
			issues = append(issues, Issue{Field: field, Message: fmt.Sprintf("%v", cause.ErrorKind)})
		}
		return issues
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
