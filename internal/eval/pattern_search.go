package eval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// PatternSearchName is the registry name of the pattern search eval.
const PatternSearchName = "pattern-search"

// PatternSearch flags output files containing any ruleset pattern.
type PatternSearch struct {
	FS FileSystem
}

// Name returns the registry name.
func (PatternSearch) Name() string {
	return PatternSearchName
}

// Run loads the ruleset, searches the configured outputs directory and
// prints one report line per file.
func (p PatternSearch) Run(ctx context.Context, env Env) (Result, error) {
	cfg := env.Config
	if strings.TrimSpace(cfg.SearchPath) == "" {
		return Result{}, configError(fmt.Errorf("searchPath is required"))
	}
	if strings.TrimSpace(cfg.Ruleset) == "" {
		return Result{}, configError(fmt.Errorf("ruleset is required"))
	}
	load, ok := LoaderFor(cfg.RulesetType)
	if !ok {
		return Result{}, configError(fmt.Errorf("unsupported rulesetType %q", cfg.RulesetType))
	}
	rulesetPath := env.Workspace.InputPath(cfg.Ruleset)
	patterns, err := load(rulesetPath)
	if err != nil {
		return Result{}, configError(err)
	}
	if len(patterns) == 0 {
		return Result{}, configError(fmt.Errorf("ruleset %s has no patterns", rulesetPath))
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	searchDir := env.Workspace.OutputPath(cfg.SearchPath)
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("pattern search",
		zap.String("search_path", searchDir),
		zap.String("ruleset", rulesetPath),
		zap.Int("patterns", len(patterns)))

	reports, err := Searcher{FS: p.FS}.Search(searchDir, patterns)
	if err != nil {
		return Result{}, err
	}
	result := Result{Status: StatusPass, Reports: reports}
	for _, report := range reports {
		switch {
		case report.Err != nil:
			logger.Warn("file not searched", zap.String("file", report.File), zap.Error(report.Err))
			result.Status = StatusError
		case report.HasMatches:
			for _, match := range report.Matches {
				logger.Debug("pattern matched",
					zap.String("file", report.File),
					zap.String("pattern", match.Pattern),
					zap.Int("count", len(match.Positions)))
			}
			if result.Status == StatusPass {
				result.Status = StatusFail
			}
		}
		if env.Report != nil {
			env.Report.File(report)
		}
	}
	return result, nil
}
