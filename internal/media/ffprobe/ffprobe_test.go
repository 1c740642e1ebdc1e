package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultDuration(t *testing.T) {
	result := Result{Format: Format{Duration: "123.45"}}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if seconds, ok := result.Duration(); !ok || seconds != 123.45 {
		t.Fatalf("unexpected Duration: %v %v", seconds, ok)
	}
}

func TestDurationRejectsUnusableValues(t *testing.T) {
	for _, value := range []string{"", "bad", "N/A", "inf", "NaN", "0", "-3"} {
		result := Result{Format: Format{Duration: value}}
		if seconds, ok := result.Duration(); ok {
			t.Fatalf("expected %q to be unusable, got %v", value, seconds)
		}
	}
	if !math.IsNaN(Result{Format: Format{Duration: "bad"}}.DurationSeconds()) {
		t.Fatal("expected NaN for unparsable duration")
	}
}

func TestInspectFormatUsesScriptedBinary(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-ffprobe")
	body := "#!/bin/sh\necho '{\"format\":{\"duration\":\"42.5\",\"format_name\":\"mov,mp4\"}}'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	result, err := InspectFormat(context.Background(), script, filepath.Join(dir, "input.mp4"))
	if err != nil {
		t.Fatalf("InspectFormat returned error: %v", err)
	}
	if seconds, ok := result.Duration(); !ok || seconds != 42.5 {
		t.Fatalf("unexpected duration: %v %v", seconds, ok)
	}
	if result.Format.FormatName != "mov,mp4" {
		t.Fatalf("unexpected format name: %q", result.Format.FormatName)
	}
}

func TestInspectFormatRejectsEmptyPath(t *testing.T) {
	if _, err := InspectFormat(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
