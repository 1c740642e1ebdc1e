package services_test

import (
	"context"
	"testing"

	"clipdeck/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithClipID(ctx, "5")
	ctx = services.WithFilename(ctx, "talk.mp4")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if id, ok := services.ClipIDFromContext(ctx); !ok || id != "5" {
		t.Fatalf("unexpected clip id: %v %v", id, ok)
	}
	if name, ok := services.FilenameFromContext(ctx); !ok || name != "talk.mp4" {
		t.Fatalf("unexpected filename: %v %v", name, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := services.WithClipID(context.Background(), "")
	if _, ok := services.ClipIDFromContext(ctx); ok {
		t.Fatal("expected no clip id value")
	}
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id := services.EnsureRequestID(context.Background())
	if id == "" {
		t.Fatal("expected generated request id")
	}
	again, same := services.EnsureRequestID(ctx)
	if same != id {
		t.Fatalf("expected existing id %q to be reused, got %q", id, same)
	}
	if got, _ := services.RequestIDFromContext(again); got != id {
		t.Fatalf("unexpected request id in context: %q", got)
	}
}
