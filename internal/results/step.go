package results

import (
	"strconv"
	"time"
)

// StepResult is the record of one completed step for one input.
type StepResult struct {
	InputName      string
	ConfigName     string
	Step           int
	StepName       string
	ShortModelName string
	ModelParams    string
	Response       string
	Latency        time.Duration
}

// Field exposes result fields to output-variable references by name.
// Latency renders in whole milliseconds.
func (r StepResult) Field(name string) (string, bool) {
	switch name {
	case "response", "responseText":
		return r.Response, true
	case "inputName":
		return r.InputName, true
	case "configName":
		return r.ConfigName, true
	case "step":
		return strconv.Itoa(r.Step), true
	case "stepName":
		return r.StepName, true
	case "shortModelName":
		return r.ShortModelName, true
	case "modelParams", "modelParamsSerialized":
		return r.ModelParams, true
	case "latency", "latencyMs":
		return strconv.FormatInt(r.Latency.Milliseconds(), 10), true
	default:
		return "", false
	}
}

// ShortModelName is the model identifier as used in response file names.
func ShortModelName(modelID string) string {
	return SafeFilename(modelID)
}

// SafeFilename replaces path separators so a name can be used as one path segment.
func SafeFilename(name string) string {
	out := []byte(name)
	for i, c := range out {
		if c == '/' || c == '\\' {
			out[i] = '-'
		}
	}
	return string(out)
}
