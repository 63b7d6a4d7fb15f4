package variable

import (
	"errors"
	"fmt"
	"strings"

	"chainbench/internal/spec"
)

// Kind names accepted in configuration.
const (
	KindLiteral = "string"
	KindFile    = "textfile"
	KindOutput  = "output_variable"
)

var (
	// ErrUnknownKind reports a variable type outside the supported set.
	ErrUnknownKind = errors.New("unknown variable type")
	// ErrNoOutput reports an output reference with no previous step.
	ErrNoOutput = errors.New("no previous step output")
	// ErrUnknownField reports an output reference to a field the result lacks.
	ErrUnknownField = errors.New("unknown output field")
)

// Var is a typed variable. The implementations are Literal, FileRef and OutputRef.
type Var interface {
	VarName() string
	isVar()
}

// Literal resolves to its value.
type Literal struct {
	Name  string
	Value string
}

// FileRef resolves to the contents of a file under the inputs directory.
type FileRef struct {
	Name string
	Path string
}

// OutputRef resolves to a field of the immediately preceding step result.
type OutputRef struct {
	Name  string
	Field string
}

func (v Literal) VarName() string   { return v.Name }
func (v FileRef) VarName() string   { return v.Name }
func (v OutputRef) VarName() string { return v.Name }

func (Literal) isVar()   {}
func (FileRef) isVar()   {}
func (OutputRef) isVar() {}

// NormalizeKind maps accepted aliases onto the canonical kind names.
func NormalizeKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "string", "literal":
		return KindLiteral
	case "textfile", "file":
		return KindFile
	case "output_variable", "output":
		return KindOutput
	default:
		return kind
	}
}

// FromSpec types a raw variable declaration.
func FromSpec(raw spec.VariableSpec) (Var, error) {
	switch NormalizeKind(raw.Type) {
	case KindLiteral:
		return Literal{Name: raw.Name, Value: raw.Value}, nil
	case KindFile:
		return FileRef{Name: raw.Name, Path: raw.Value}, nil
	case KindOutput:
		return OutputRef{Name: raw.Name, Field: raw.Value}, nil
	default:
		return nil, fmt.Errorf("%w %q for variable %q", ErrUnknownKind, raw.Type, raw.Name)
	}
}

// FromSpecs types a list of raw variable declarations, preserving order.
func FromSpecs(raw []spec.VariableSpec) ([]Var, error) {
	vars := make([]Var, 0, len(raw))
	for _, item := range raw {
		v, err := FromSpec(item)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}
