package model

import (
	"fmt"

	"github.com/spf13/cast"
)

// paramValue returns the first present key from params.
func paramValue(params map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := params[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func floatParam(params map[string]any, keys ...string) (*float32, error) {
	value, ok := paramValue(params, keys...)
	if !ok {
		return nil, nil
	}
	f, err := cast.ToFloat32E(value)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", keys[0], err)
	}
	return &f, nil
}

func intParam(params map[string]any, keys ...string) (*int32, error) {
	value, ok := paramValue(params, keys...)
	if !ok {
		return nil, nil
	}
	n, err := cast.ToInt32E(value)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", keys[0], err)
	}
	return &n, nil
}

func stringsParam(params map[string]any, keys ...string) ([]string, error) {
	value, ok := paramValue(params, keys...)
	if !ok {
		return nil, nil
	}
	if s, isString := value.(string); isString {
		return []string{s}, nil
	}
	out, err := cast.ToStringSliceE(value)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", keys[0], err)
	}
	return out, nil
}
