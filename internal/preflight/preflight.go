package preflight

import (
	"context"

	"tonearm/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The analyzer check only runs when the analyzer is configured; an
// unconfigured analyzer falls back to tag heuristics and is not an error.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Source directory", cfg.Paths.SourceDir))
	if cfg.Paths.TargetDir != "" {
		results = append(results, CheckDirectoryAccess("Target directory", cfg.Paths.TargetDir))
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Analyzer.APIKey != "" {
		results = append(results, CheckAnalyzer(ctx, cfg))
	}

	return results
}
