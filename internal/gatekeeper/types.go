package gatekeeper

import (
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// Candidate is a local file offered for upload.
type Candidate struct {
	Path string
	// MediaType is the declared type. When empty it is derived from the
	// file extension.
	MediaType string
}

// Validated is a file that passed every gatekeeper check.
type Validated struct {
	path      string
	name      string
	mediaType string
	duration  time.Duration
	size      int64
}

// Path returns the local file path.
func (v *Validated) Path() string { return v.path }

// Name returns the file name sent to the backend.
func (v *Validated) Name() string { return v.name }

// MediaType returns the declared media type.
func (v *Validated) MediaType() string { return v.mediaType }

// Duration returns the probed duration.
func (v *Validated) Duration() time.Duration { return v.duration }

// Size returns the file size in bytes.
func (v *Validated) Size() int64 { return v.size }

var extensionTypes = map[string]string{
	".mp4": "video/mp4",
	".m4v": "video/mp4",
	".mov": "video/quicktime",
	".avi": "video/x-msvideo",
	".mkv": "video/x-matroska",
}

// DeclaredType derives a media type from the path extension alone.
func DeclaredType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	if value, ok := extensionTypes[ext]; ok {
		return value
	}
	if value := mime.TypeByExtension(ext); value != "" {
		if base, _, err := mime.ParseMediaType(value); err == nil {
			return base
		}
		return value
	}
	return ""
}

func normalizeType(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if base, _, err := mime.ParseMediaType(value); err == nil {
		return base
	}
	return value
}
