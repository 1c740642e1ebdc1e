package captions

import (
	"fmt"
	"math"
	"strings"
)

// MIMEType is the media type of rendered caption documents.
const MIMEType = "text/vtt"

var cueTextEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// RenderVTT serializes cues as a WebVTT document, shifting every cue back by
// offset seconds. Cues that collapse to zero or negative length once rounded
// to milliseconds are left out and numbering stays contiguous.
func RenderVTT(cues []Cue, offset float64) []byte {
	doc, _ := renderVTT(cues, offset)
	return doc
}

func renderVTT(cues []Cue, offset float64) ([]byte, int) {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	written := 0
	for _, cue := range cues {
		startMs := toMillis(cue.Start - offset)
		endMs := toMillis(cue.End - offset)
		if endMs <= startMs {
			continue
		}
		text := cueTextEscaper.Replace(strings.TrimSpace(cue.Text))
		if text == "" {
			continue
		}
		written++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", written, formatMillis(startMs), formatMillis(endMs), text)
	}
	return []byte(b.String()), written
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm. Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	return formatMillis(toMillis(seconds))
}

// maxMillis caps cue times so formatting never overflows.
const maxMillis = math.MaxInt64 / 2

func toMillis(seconds float64) int64 {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if seconds >= maxMillis/1000 {
		return maxMillis
	}
	return int64(math.Round(seconds * 1000))
}

func formatMillis(ms int64) string {
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	secs := ms / 1_000
	millis := ms % 1_000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, millis)
}
