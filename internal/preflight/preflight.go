package preflight

import (
	"context"

	"shuttle/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every applicable check for the given config: storage tier
// and data directory access, the external tool binaries, and catalog
// reachability when an API key is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Fast tier root", cfg.Paths.FastRoot),
		CheckDirectoryAccess("Slow tier root", cfg.Paths.SlowRoot),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	results = append(results, CheckTools(cfg.Tools)...)
	if cfg.Radarr.APIKey != "" {
		results = append(results, CheckRadarr(ctx, cfg.Radarr))
	}
	return results
}

// Failures filters a result set down to failed required checks.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed && !result.Optional {
			failed = append(failed, result)
		}
	}
	return failed
}
