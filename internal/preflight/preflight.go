package preflight

import (
	"context"

	"clipdeck/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name" yaml:"name"`
	Passed   bool   `json:"passed" yaml:"passed"`
	Detail   string `json:"detail" yaml:"detail"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Pinger is satisfied by the backend client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunAll executes every check. The backend check is skipped when pinger is
// nil.
func RunAll(ctx context.Context, cfg *config.Config, pinger Pinger) []Result {
	if cfg == nil {
		return nil
	}
	results := Local(ctx, cfg)
	results = append(results, CheckJournal(ctx, cfg))
	if pinger != nil {
		results = append(results, CheckBackend(ctx, cfg.Backend.BaseURL, pinger))
	}
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// Local runs the checks that need no network access.
func Local(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckFFprobe(ctx, cfg.FFprobeBinary()),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Handle directory", cfg.Paths.HandleDir),
		CheckLazyDirectory("Download directory", cfg.Paths.DownloadDir),
	}
}

// Failed returns the non-optional checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
