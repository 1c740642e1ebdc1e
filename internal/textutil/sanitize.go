package textutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-' || r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// ClipFileName returns the download name for the clip at position index in a
// listing: clip_1.mp4 for the first clip.
func ClipFileName(index int) string {
	return fmt.Sprintf("clip_%d.mp4", index+1)
}

// CaptionFileName derives a WebVTT export name from the source video name and
// clip identifier, e.g. "talk_clip-5.vtt".
func CaptionFileName(video, clipID string) string {
	base := strings.TrimSuffix(filepath.Base(strings.TrimSpace(video)), filepath.Ext(video))
	base = SanitizeFileName(base)
	if base == "" || base == "." {
		base = "video"
	}
	return fmt.Sprintf("%s_clip-%s.vtt", base, SanitizeToken(clipID))
}
