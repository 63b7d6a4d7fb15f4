package variable

import (
	"fmt"
)

// Output is a read-only view of a completed step result.
type Output interface {
	Field(name string) (string, bool)
}

// DocumentLoader returns the contents of a file reference.
type DocumentLoader interface {
	Load(path string) (string, error)
}

// Resolver turns typed variables into strings.
type Resolver struct {
	Documents DocumentLoader
}

// NewResolver builds a resolver reading file references through docs.
func NewResolver(docs DocumentLoader) *Resolver {
	return &Resolver{Documents: docs}
}

// Resolve returns the value of v. prev is nil when no step has completed.
func (r *Resolver) Resolve(v Var, prev Output) (string, error) {
	switch v := v.(type) {
	case Literal:
		return v.Value, nil
	case FileRef:
		if r == nil || r.Documents == nil {
			return "", fmt.Errorf("resolve %q: no document loader configured", v.Name)
		}
		text, err := r.Documents.Load(v.Path)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", v.Name, err)
		}
		return text, nil
	case OutputRef:
		if prev == nil {
			return "", fmt.Errorf("resolve %q: %w", v.Name, ErrNoOutput)
		}
		value, ok := prev.Field(v.Field)
		if !ok {
			return "", fmt.Errorf("resolve %q: %w %q", v.Name, ErrUnknownField, v.Field)
		}
		return value, nil
	default:
		return "", fmt.Errorf("resolve: unsupported variable %T", v)
	}
}

// ResolveAll resolves vars in order into a name to value map.
// A later variable with the same name replaces an earlier one.
func (r *Resolver) ResolveAll(vars []Var, prev Output) (map[string]string, error) {
	values := make(map[string]string, len(vars))
	for _, v := range vars {
		value, err := r.Resolve(v, prev)
		if err != nil {
			return nil, err
		}
		values[v.VarName()] = value
	}
	return values, nil
}

// Merge overlays later maps onto earlier ones. Step variables are passed last
// so they win over input variables with the same name.
func Merge(layers ...map[string]string) map[string]string {
	size := 0
	for _, layer := range layers {
		size += len(layer)
	}
	merged := make(map[string]string, size)
	for _, layer := range layers {
		for name, value := range layer {
			merged[name] = value
		}
	}
	return merged
}
