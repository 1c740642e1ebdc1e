package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipdeck/internal/gatekeeper"
	"clipdeck/internal/media/ffprobe"
	"clipdeck/internal/testsupport"
)

type cliTestEnv struct {
	fake       *testsupport.FakeBackend
	configPath string
	baseDir    string
	downloads  string
	handles    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("CLIPDECK_BASE_URL", "")
	t.Setenv("CLIPDECK_API_TOKEN", "")
	t.Setenv("CLIPDECK_NTFY_TOPIC", "")

	fake := testsupport.NewFakeBackend(t)
	ffprobeStub := filepath.Join(base, "bin", "ffprobe")
	if err := os.MkdirAll(filepath.Dir(ffprobeStub), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(ffprobeStub, []byte("#!/bin/sh\necho 'ffprobe version test'\n"), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}

	env := &cliTestEnv{
		fake:       fake,
		configPath: filepath.Join(base, "clipdeck.toml"),
		baseDir:    base,
		downloads:  filepath.Join(base, "downloads"),
		handles:    filepath.Join(base, "handles"),
	}
	content := fmt.Sprintf(`[paths]
state_dir = %q
handle_dir = %q
download_dir = %q
log_dir = %q

[backend]
base_url = %q

[upload]
ffprobe_binary = %q

[notifications]
console = false

[logging]
level = "error"
`, filepath.Join(base, "state"), env.handles, env.downloads, filepath.Join(base, "logs"), fake.URL(), ffprobeStub)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

// stubProbe makes every metadata probe report duration seconds.
func stubProbe(t *testing.T, duration string) {
	t.Helper()
	restore := gatekeeper.SetProbeForTests(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{Format: ffprobe.Format{Duration: duration}}, nil
	})
	t.Cleanup(restore)
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, env, nil, args...)
}

func runCLIWithInput(t *testing.T, env *cliTestEnv, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
