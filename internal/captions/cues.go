package captions

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"clipdeck/internal/resources"
)

// Cue is one caption line. Times are on the source video's timeline.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Track is the caption state synthesized for one clip.
type Track struct {
	ClipID string
	Start  float64
	End    float64
	Cues   []Cue
	// Handle is the attached caption resource, nil when none was produced.
	Handle *resources.Handle
}

// Empty reports whether the track carries no cues.
func (t Track) Empty() bool { return len(t.Cues) == 0 }

// Select returns cues for the segments that lie entirely inside
// [start, end]. Segments crossing either boundary are dropped, not trimmed.
func Select(segments []Segment, start, end float64) []Cue {
	cues := make([]Cue, 0, len(segments))
	for _, seg := range segments {
		if seg.Start >= start && seg.End <= end {
			cues = append(cues, Cue{Start: seg.Start, End: seg.End, Text: normalizeText(seg.Text)})
		}
	}
	slices.SortStableFunc(cues, func(a, b Cue) int { return cmp.Compare(a.Start, b.Start) })
	return cues
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
