package preflight

import (
	"context"
	"strings"

	"gopsplice/internal/config"
)

// Result is one line of preflight output.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the directories cfg writes to. It returns nil for a nil
// config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	work := CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir)
	results := []Result{work}
	if work.Passed {
		results = append(results, CheckFreeSpace("Work free space", cfg.Paths.WorkDir, minWorkSpace))
	}
	if strings.TrimSpace(cfg.Paths.StateDir) != "" {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}
	// The console logger always writes gopsplice.log; only check it when set.
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if err := ctx.Err(); err != nil {
		results = append(results, Result{Name: "Context", Detail: err.Error()})
	}
	return results
}

// Failed filters results down to the ones that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
