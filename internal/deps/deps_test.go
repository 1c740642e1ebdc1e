package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "#!/bin/sh\nexit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank result: %#v", results[2])
	}
}

func TestCheckFFprobeReadsVersionBanner(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "ffprobe", "#!/bin/sh\necho 'ffprobe version 7.1 Copyright (c)'\necho 'built with gcc'\n")
	t.Setenv("PATH", dir)

	status := CheckFFprobe(context.Background(), "ffprobe")
	if !status.Available {
		t.Fatalf("expected ffprobe available, got %#v", status)
	}
	if status.Command != filepath.Join(dir, "ffprobe") {
		t.Fatalf("expected resolved command, got %q", status.Command)
	}
	if status.Detail != "ffprobe version 7.1 Copyright (c)" {
		t.Fatalf("unexpected detail %q", status.Detail)
	}
}

func TestCheckFFprobeVersionFailure(t *testing.T) {
	path := writeStub(t, t.TempDir(), "ffprobe", "#!/bin/sh\nexit 3\n")
	status := CheckFFprobe(context.Background(), path)
	if !status.Available || status.Detail != "version unknown" {
		t.Fatalf("unexpected status %#v", status)
	}
}

func TestCheckFFprobeMissing(t *testing.T) {
	t.Setenv("PATH", "")
	status := CheckFFprobe(context.Background(), "ffprobe")
	if status.Available {
		t.Fatal("expected ffprobe resolution to fail")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when ffprobe is unavailable")
	}
}
