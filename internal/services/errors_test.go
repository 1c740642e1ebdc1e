package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"clipdeck/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "gatekeeper", "probe", "ffprobe failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"gatekeeper", "probe", "ffprobe failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestFailureCarriesReasonAndMarker(t *testing.T) {
	base := errors.New("503 service unavailable")
	err := services.Fail(services.ReasonUploadFailed, services.ErrRemote, "workflow", "upload", "", base)
	wrapped := fmt.Errorf("run: %w", err)

	if got := services.ReasonOf(wrapped); got != services.ReasonUploadFailed {
		t.Fatalf("unexpected reason: %q", got)
	}
	if !errors.Is(wrapped, services.ErrRemote) {
		t.Fatalf("expected remote marker, got %v", wrapped)
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("expected base error, got %v", wrapped)
	}
	if services.IsLocal(wrapped) {
		t.Fatal("upload failures are not local")
	}
}

func TestReasonLocality(t *testing.T) {
	local := []services.Reason{
		services.ReasonInvalidType,
		services.ReasonUnreadableMetadata,
		services.ReasonTooLong,
		services.ReasonNoInput,
		services.ReasonNoRanges,
		services.ReasonBusy,
	}
	for _, reason := range local {
		if !reason.Local() {
			t.Fatalf("expected %q to be local", reason)
		}
	}
	remote := []services.Reason{services.ReasonUploadFailed, services.ReasonGenerationFailed, services.ReasonDeleteFailed, services.ReasonNone}
	for _, reason := range remote {
		if reason.Local() {
			t.Fatalf("expected %q to be non-local", reason)
		}
	}
	if got := services.ReasonOf(errors.New("plain")); got != services.ReasonNone {
		t.Fatalf("expected no reason for plain error, got %q", got)
	}
}
