package eval

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// RulesetCSV is the only supported ruleset type.
const RulesetCSV = "csvfile"

// PatternColumn is the header naming the pattern column of a ruleset.
const PatternColumn = "pattern"

// ErrNoPatternColumn is returned when a ruleset has no pattern column.
var ErrNoPatternColumn = errors.New("ruleset has no pattern column")

// PatternLoader reads the patterns of one ruleset type.
type PatternLoader func(path string) ([]string, error)

var rulesetLoaders = map[string]PatternLoader{
	RulesetCSV: LoadPatterns,
}

// LoaderFor returns the pattern loader for rulesetType. An empty type is
// treated as csvfile.
func LoaderFor(rulesetType string) (PatternLoader, bool) {
	key := strings.ToLower(strings.TrimSpace(rulesetType))
	if key == "" {
		key = RulesetCSV
	}
	loader, ok := rulesetLoaders[key]
	return loader, ok
}

// LoadPatterns reads every non-empty value of the pattern column of a CSV
// ruleset, in row order. Duplicates are kept.
func LoadPatterns(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ruleset: %w", err)
	}
	defer file.Close()
	patterns, err := ReadPatterns(file)
	if err != nil {
		return nil, fmt.Errorf("load ruleset %s: %w", path, err)
	}
	return patterns, nil
}

// ReadPatterns parses CSV ruleset data from r.
func ReadPatterns(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoPatternColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	column := -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		if name == PatternColumn {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, ErrNoPatternColumn
	}

	patterns := make([]string, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if column >= len(record) {
			continue
		}
		if value := record[column]; value != "" {
			patterns = append(patterns, value)
		}
	}
	return patterns, nil
}
