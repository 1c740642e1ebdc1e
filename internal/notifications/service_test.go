package notifications_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clipdeck/internal/config"
	"clipdeck/internal/notifications"
	"clipdeck/internal/services"
)

func TestNewServiceReturnsNoopWhenNothingEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Console = false
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg, &bytes.Buffer{})
	if err := svc.Publish(context.Background(), notifications.EventClipsReady, notifications.Payload{"filename": "talk.mp4"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "clips ready",
			event:         notifications.EventClipsReady,
			payload:       notifications.Payload{"filename": "talk.mp4", "count": 3, "mode": "ai"},
			expectTitle:   "clipdeck - Clips Ready",
			expectMessage: "3 clip(s) ready for talk.mp4 (ai)",
			expectTags:    "clipdeck,clips,ai",
		},
		{
			name:  "workflow failed",
			event: notifications.EventWorkflowFailed,
			payload: notifications.Payload{
				"filename": "talk.mp4",
				"reason":   string(services.ReasonUploadFailed),
				"error":    errors.New("backend: upload video failed (502 Bad Gateway)"),
			},
			expectTitle:    "clipdeck - Workflow Failed",
			expectMessage:  "Workflow for talk.mp4 failed: backend: upload video failed (502 Bad Gateway) [upload-failed]",
			expectTags:     "clipdeck,error,alert",
			expectPriority: "high",
		},
		{
			name:          "delete failed",
			event:         notifications.EventDeleteFailed,
			payload:       notifications.Payload{"entity": "clip", "id": "5", "reason": "delete-failed"},
			expectTitle:   "clipdeck - Delete Failed",
			expectMessage: "Could not delete clip 5 [delete-failed]",
			expectTags:    "clipdeck,delete,failed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, _ := io.ReadAll(r.Body)
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.Console = false
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg, nil)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresLocalEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for terminal-only event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.Console = false
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg, nil)
	for _, event := range []notifications.Event{
		notifications.EventUploadRejected,
		notifications.EventUploadCompleted,
		notifications.EventDeleted,
		notifications.EventListingFailed,
		notifications.EventDownloadSaved,
		notifications.Event("unknown"),
	} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"filename": "x"}); err != nil {
			t.Fatalf("expected no error for %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.Console = false
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg, nil).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}

func TestConsoleIncludesReason(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg, &buf)
	err := svc.Publish(context.Background(), notifications.EventUploadRejected, notifications.Payload{
		"filename": "long.mp4",
		"reason":   string(services.ReasonTooLong),
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got := buf.String()
	if got != "! Not uploading long.mp4 [too-long]\n" {
		t.Fatalf("unexpected console output %q", got)
	}
}

type failing struct{ err error }

func (f failing) Publish(context.Context, notifications.Event, notifications.Payload) error {
	return f.err
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	var buf bytes.Buffer
	svc := notifications.Multi(failing{err: boom}, notifications.NewConsole(&buf), nil)
	err := svc.Publish(context.Background(), notifications.EventDeleted, notifications.Payload{"entity": "video", "id": "a.mp4"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !strings.Contains(buf.String(), "Deleted video a.mp4") {
		t.Fatalf("console did not receive notice: %q", buf.String())
	}
}
