package prompt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingVariable reports a placeholder with no value in the namespace.
	ErrMissingVariable = errors.New("missing variable")
	// ErrMalformed reports an unbalanced brace in a template.
	ErrMalformed = errors.New("malformed template")
)

type part struct {
	text        string
	placeholder bool
}

// Template is a parsed prompt with {name} placeholders. Doubled braces are
// literal braces.
type Template struct {
	source string
	parts  []part
}

// Parse splits src into literal text and placeholders.
func Parse(src string) (Template, error) {
	var parts []part
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			parts = append(parts, part{text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			if i+1 < len(src) && src[i+1] == '{' {
				literal.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(src[i+1:], '}')
			if end < 0 {
				return Template{}, fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformed, i)
			}
			name := src[i+1 : i+1+end]
			if name == "" || strings.ContainsRune(name, '{') {
				return Template{}, fmt.Errorf("%w: invalid placeholder at offset %d", ErrMalformed, i)
			}
			flush()
			parts = append(parts, part{text: name, placeholder: true})
			i += end + 1
		case '}':
			if i+1 < len(src) && src[i+1] == '}' {
				literal.WriteByte('}')
				i++
				continue
			}
			return Template{}, fmt.Errorf("%w: single '}' at offset %d", ErrMalformed, i)
		default:
			literal.WriteByte(c)
		}
	}
	flush()
	return Template{source: src, parts: parts}, nil
}

// Source returns the unparsed template text.
func (t Template) Source() string {
	return t.source
}

// Placeholders lists placeholder names in order of first appearance.
func (t Template) Placeholders() []string {
	seen := map[string]struct{}{}
	names := make([]string, 0, len(t.parts))
	for _, p := range t.parts {
		if !p.placeholder {
			continue
		}
		if _, ok := seen[p.text]; ok {
			continue
		}
		seen[p.text] = struct{}{}
		names = append(names, p.text)
	}
	return names
}

// Render substitutes every placeholder from vars. Variables the template does
// not reference are ignored.
func (t Template) Render(vars map[string]string) (string, error) {
	var out strings.Builder
	var missing []string
	for _, p := range t.parts {
		if !p.placeholder {
			out.WriteString(p.text)
			continue
		}
		value, ok := vars[p.text]
		if !ok {
			missing = append(missing, p.text)
			continue
		}
		out.WriteString(value)
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, strings.Join(dedupe(missing), ", "))
	}
	return out.String(), nil
}

// Build parses src and renders it with vars.
func Build(src string, vars map[string]string) (string, error) {
	tmpl, err := Parse(src)
	if err != nil {
		return "", err
	}
	return tmpl.Render(vars)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
