package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"clipdeck/internal/backend"
	"clipdeck/internal/config"
	"clipdeck/internal/deps"
	"clipdeck/internal/journal"
)

const (
	backendCheckTimeout = 10 * time.Second
	ntfyCheckTimeout    = 5 * time.Second
)

// CheckFFprobe reports whether the metadata probe can run.
func CheckFFprobe(ctx context.Context, binary string) Result {
	status := deps.CheckFFprobe(ctx, binary)
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	detail := status.Command
	if status.Detail != "" {
		detail = fmt.Sprintf("%s (%s)", status.Command, status.Detail)
	}
	return Result{Name: status.Name, Passed: true, Detail: detail}
}

// CheckBackend verifies that the clip service answers.
func CheckBackend(ctx context.Context, baseURL string, pinger Pinger) Result {
	const name = "Clip backend"
	checkCtx, cancel := context.WithTimeout(ctx, backendCheckTimeout)
	defer cancel()
	if err := pinger.Ping(checkCtx); err != nil {
		// Any HTTP answer proves the service is up; the root path may 404.
		var status *backend.StatusError
		if errors.As(err, &status) && status.StatusCode < http.StatusInternalServerError {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable, root answered %d)", baseURL, status.StatusCode)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", baseURL, summarizeError(err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", baseURL)}
}

// CheckNtfy verifies that the ntfy server behind topic answers. It never
// publishes.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "ntfy"
	checkCtx, cancel := context.WithTimeout(ctx, ntfyCheckTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, strings.TrimSpace(topic), nil)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("invalid topic (%v)", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: summarizeError(err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("server error (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Optional: true, Passed: true, Detail: "Reachable"}
}

// CheckJournal verifies that the run journal opens and its schema matches.
func CheckJournal(ctx context.Context, cfg *config.Config) Result {
	const name = "Run journal"
	store, err := journal.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.JournalPath(), err)}
	}
	defer store.Close()
	runs, err := store.ListRuns(ctx, 1)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", store.Path(), err)}
	}
	detail := "no runs yet"
	if len(runs) > 0 {
		detail = fmt.Sprintf("last run %s", runs[0].StartedAt.Format(time.DateTime))
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", store.Path(), detail)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLazyDirectory passes for a missing directory that clipdeck creates on
// first use, and otherwise behaves like CheckDirectoryAccess.
func CheckLazyDirectory(name, path string) Result {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first use)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("unreachable (%v)", opErr.Err)
	}
	return err.Error()
}
