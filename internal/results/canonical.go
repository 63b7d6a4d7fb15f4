package results

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalJSON returns deterministic JSON bytes with map keys sorted.
func CanonicalJSON(value any) ([]byte, error) {
	normalized, err := normalizeJSON(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// CanonicalParams renders model parameters for the results table. Missing
// parameters render as an empty object.
func CanonicalParams(params map[string]any) (string, error) {
	if len(params) == 0 {
		return "{}", nil
	}
	data, err := CanonicalJSON(params)
	if err != nil {
		return "", fmt.Errorf("canonical params: %w", err)
	}
	return string(data), nil
}

// Fingerprint returns a SHA-256 hex digest of canonical text.
func Fingerprint(canonical string) string {
	hash := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(hash[:])
}

func normalizeJSON(value any) (any, error) {
	switch v := value.(type) {
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, fmt.Errorf("normalize json raw: %w", err)
		}
		return normalizeJSON(decoded)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			norm, err := normalizeJSON(inner)
			if err != nil {
				return nil, err
			}
			out[k] = norm
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			norm, err := normalizeJSON(inner)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = norm
		}
		return out, nil
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = inner
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i := range v {
			norm, err := normalizeJSON(v[i])
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	default:
		return v, nil
	}
}
