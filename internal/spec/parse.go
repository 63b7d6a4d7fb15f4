package spec

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseConfig decodes a single YAML document strictly and returns its config block.
func ParseConfig(data []byte) (Config, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return Config{}, err
	}
	return doc.Config, nil
}

// ParseDocument decodes a single YAML document, rejecting unknown fields.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return Document{}, fmt.Errorf("parse config: empty document")
		}
		return Document{}, fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Document{}, fmt.Errorf("parse config: multiple YAML documents are not supported")
		}
		return Document{}, fmt.Errorf("parse config: %w", err)
	}
	return doc, nil
}

// ParseRaw decodes a single YAML document into generic values for schema validation.
func ParseRaw(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}
