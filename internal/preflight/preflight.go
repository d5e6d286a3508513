package preflight

import (
	"context"
	"strings"

	"videomixer/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the free space below which the output check fails.
const minFreeBytes = 1 << 30

// RunAll executes the filesystem checks for cfg. outputDir is checked when
// non-empty.
func RunAll(_ context.Context, cfg *config.Config, outputDir string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDirectoryAccess("Transcript directory", cfg.Paths.TranscriptDir))
	if dir := strings.TrimSpace(outputDir); dir != "" {
		access := CheckDirectoryAccess("Output directory", dir)
		results = append(results, access)
		if access.Passed {
			results = append(results, CheckFreeSpace("Output free space", dir, minFreeBytes))
		}
	}
	if font := strings.TrimSpace(cfg.Caption.Font); font != "" {
		results = append(results, CheckFileReadable("Caption font", font))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
