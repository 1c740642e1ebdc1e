package notifications

import (
	"fmt"
	"strings"
)

// Event names a user-visible workflow notice.
type Event string

const (
	EventUploadRejected  Event = "upload_rejected"
	EventRequestRejected Event = "request_rejected"
	EventUploadCompleted Event = "upload_completed"
	EventClipsReady      Event = "clips_ready"
	EventWorkflowFailed  Event = "workflow_failed"
	EventDeleted         Event = "deleted"
	EventDeleteFailed    Event = "delete_failed"
	EventListingFailed   Event = "listing_failed"
	EventDownloadSaved   Event = "download_saved"
	EventTest            Event = "test"
)

// Payload carries event fields. Keys in use: filename, reason, error, count,
// mode, entity, id, scope, path.
type Payload map[string]any

// Severity classifies how a notice is presented.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type message struct {
	title    string
	body     string
	tags     []string
	priority string
	severity Severity
	// remote is false for notices that only matter to the local terminal.
	remote bool
}

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func withReason(text, reason string) string {
	if reason == "" {
		return text
	}
	return fmt.Sprintf("%s [%s]", text, reason)
}

func appendError(text, detail string) string {
	if detail == "" {
		return text
	}
	return text + ": " + detail
}

func render(event Event, payload Payload) (message, bool) {
	filename := payload.str("filename")
	reason := payload.str("reason")
	detail := payload.str("error")

	switch event {
	case EventUploadRejected:
		return message{
			title:    "clipdeck - Upload Rejected",
			body:     withReason(appendError(fmt.Sprintf("Not uploading %s", fallback(filename, "file")), detail), reason),
			tags:     []string{"clipdeck", "upload", "rejected"},
			severity: SeverityWarning,
		}, true
	case EventRequestRejected:
		subject := "Request"
		if filename != "" {
			subject = fmt.Sprintf("Request for %s", filename)
		}
		return message{
			title:    "clipdeck - Request Rejected",
			body:     withReason(appendError(subject+" rejected", detail), reason),
			tags:     []string{"clipdeck", "request", "rejected"},
			severity: SeverityWarning,
		}, true
	case EventUploadCompleted:
		return message{
			title:    "clipdeck - Uploaded",
			body:     fmt.Sprintf("Uploaded %s", filename),
			tags:     []string{"clipdeck", "upload", "completed"},
			severity: SeverityInfo,
		}, true
	case EventClipsReady:
		mode := fallback(payload.str("mode"), "manual")
		return message{
			title:    "clipdeck - Clips Ready",
			body:     fmt.Sprintf("%s clip(s) ready for %s (%s)", fallback(payload.str("count"), "0"), filename, mode),
			tags:     []string{"clipdeck", "clips", mode},
			severity: SeverityInfo,
			remote:   true,
		}, true
	case EventWorkflowFailed:
		return message{
			title:    "clipdeck - Workflow Failed",
			body:     withReason(appendError(fmt.Sprintf("Workflow for %s failed", fallback(filename, "video")), detail), reason),
			tags:     []string{"clipdeck", "error", "alert"},
			priority: "high",
			severity: SeverityError,
			remote:   true,
		}, true
	case EventDeleted:
		return message{
			title:    "clipdeck - Deleted",
			body:     fmt.Sprintf("Deleted %s %s", fallback(payload.str("entity"), "item"), payload.str("id")),
			tags:     []string{"clipdeck", "delete"},
			severity: SeverityInfo,
		}, true
	case EventDeleteFailed:
		return message{
			title:    "clipdeck - Delete Failed",
			body:     withReason(appendError(fmt.Sprintf("Could not delete %s %s", fallback(payload.str("entity"), "item"), payload.str("id")), detail), reason),
			tags:     []string{"clipdeck", "delete", "failed"},
			severity: SeverityWarning,
			remote:   true,
		}, true
	case EventListingFailed:
		return message{
			title:    "clipdeck - Listing Failed",
			body:     withReason(appendError(fmt.Sprintf("Could not refresh %s", fallback(payload.str("scope"), "listing")), detail), reason),
			tags:     []string{"clipdeck", "listing", "failed"},
			severity: SeverityWarning,
		}, true
	case EventDownloadSaved:
		return message{
			title:    "clipdeck - Saved",
			body:     fmt.Sprintf("Saved %s", payload.str("path")),
			tags:     []string{"clipdeck", "download"},
			severity: SeverityInfo,
		}, true
	case EventTest:
		return message{
			title:    "clipdeck - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"clipdeck", "test"},
			priority: "low",
			severity: SeverityInfo,
			remote:   true,
		}, true
	default:
		return message{}, false
	}
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
