package eval

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single regular expression evaluation.
const DefaultMatchTimeout = 5 * time.Second

// ErrNoPatterns is returned when a search is started without patterns.
var ErrNoPatterns = errors.New("no patterns to search for")

// Position is one match location: a 1-based line and a 0-based column
// counted in characters.
type Position struct {
	Line   int
	Column int
}

// MatchRecord lists every match of one pattern in one file.
type MatchRecord struct {
	File      string
	Pattern   string
	Positions []Position
}

// FileReport is the search outcome for one file.
type FileReport struct {
	File       string
	HasMatches bool
	Matches    []MatchRecord
	Err        error
}

// FileSystem abstracts the directory listing and file reads of a search.
type FileSystem interface {
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	Stat(name string) (fs.FileInfo, error)
}

type osFileSystem struct{}

func (osFileSystem) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (osFileSystem) ReadFile(name string) ([]byte, error)       { return os.ReadFile(name) }
func (osFileSystem) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }

// Searcher scans directories for pattern matches.
type Searcher struct {
	FS           FileSystem
	MatchTimeout time.Duration
}

// Search scans the top-level regular files of dir with the OS filesystem.
func Search(dir string, patterns []string) ([]FileReport, error) {
	return Searcher{}.Search(dir, patterns)
}

// Search scans every top-level regular file of dir for every pattern.
// Configuration problems are returned as errors wrapping ErrConfig before
// any file is read; read failures are reported on the affected file only.
func (s Searcher) Search(dir string, patterns []string) ([]FileReport, error) {
	fsys := s.FS
	if fsys == nil {
		fsys = osFileSystem{}
	}
	if len(patterns) == 0 {
		return nil, configError(ErrNoPatterns)
	}
	info, err := fsys.Stat(dir)
	if err != nil {
		return nil, configError(fmt.Errorf("search path: %w", err))
	}
	if !info.IsDir() {
		return nil, configError(fmt.Errorf("search path %s is not a directory", dir))
	}
	compiled, err := compilePatterns(patterns, s.matchTimeout())
	if err != nil {
		return nil, configError(err)
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, configError(fmt.Errorf("list search path: %w", err))
	}

	reports := make([]FileReport, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		report := FileReport{File: path, Matches: []MatchRecord{}}
		target, err := fsys.Stat(path)
		if err != nil {
			report.Err = fmt.Errorf("stat %s: %w", path, err)
			reports = append(reports, report)
			continue
		}
		if !target.Mode().IsRegular() {
			continue
		}
		data, err := fsys.ReadFile(path)
		if err != nil {
			report.Err = fmt.Errorf("read %s: %w", path, err)
			reports = append(reports, report)
			continue
		}
		report.Matches, report.Err = searchText(path, string(data), compiled)
		report.HasMatches = len(report.Matches) > 0
		reports = append(reports, report)
	}
	return reports, nil
}

func (s Searcher) matchTimeout() time.Duration {
	if s.MatchTimeout > 0 {
		return s.MatchTimeout
	}
	return DefaultMatchTimeout
}

type compiledPattern struct {
	source string
	re     *regexp2.Regexp
}

func compilePatterns(patterns []string, timeout time.Duration) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp2.Compile(pattern, regexp2.IgnoreCase|regexp2.ECMAScript)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
		}
		re.MatchTimeout = timeout
		compiled = append(compiled, compiledPattern{source: pattern, re: re})
	}
	return compiled, nil
}

func searchText(path, text string, patterns []compiledPattern) ([]MatchRecord, error) {
	lines := strings.Split(text, "\n")
	matches := make([]MatchRecord, 0)
	for _, pattern := range patterns {
		var positions []Position
		for i, line := range lines {
			found, err := findAll(pattern.re, line)
			if err != nil {
				return matches, fmt.Errorf("pattern %q line %d: %w", pattern.source, i+1, err)
			}
			for _, column := range found {
				positions = append(positions, Position{Line: i + 1, Column: column})
			}
		}
		if len(positions) == 0 {
			continue
		}
		matches = append(matches, MatchRecord{File: path, Pattern: pattern.source, Positions: positions})
	}
	return matches, nil
}

// findAll returns the start column of every non-overlapping match in line.
func findAll(re *regexp2.Regexp, line string) ([]int, error) {
	var columns []int
	match, err := re.FindStringMatch(line)
	for match != nil && err == nil {
		columns = append(columns, match.Index)
		match, err = re.FindNextMatch(match)
	}
	return columns, err
}
