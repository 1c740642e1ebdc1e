package captions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyTranscript is returned for a blank transcript payload.
var ErrEmptyTranscript = errors.New("transcript is empty")

const maxEnvelopeDepth = 3

// Segment is one timestamped span of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type wireSegment struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  string   `json:"text"`
}

type wireDocument struct {
	Segments   *[]wireSegment  `json:"segments"`
	Transcript json.RawMessage `json:"transcript"`
}

// ParseTranscript decodes a transcript document. It accepts a {"segments": [...]}
// object, the same object serialized as a string inside {"transcript": ...},
// or a bare segment array. Segments without both timestamps are skipped.
func ParseTranscript(data []byte) ([]Segment, error) {
	return parseDocument(data, 0)
}

func parseDocument(data []byte, depth int) ([]Segment, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, ErrEmptyTranscript
	}
	if depth > maxEnvelopeDepth {
		return nil, errors.New("transcript envelope nested too deeply")
	}

	switch data[0] {
	case '[':
		var raw []wireSegment
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode transcript segments: %w", err)
		}
		return convertSegments(raw), nil
	case '{':
		var doc wireDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		if doc.Segments != nil {
			return convertSegments(*doc.Segments), nil
		}
		if len(doc.Transcript) > 0 {
			return parseDocument(doc.Transcript, depth+1)
		}
		return nil, errors.New("transcript document has no segments")
	case '"':
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("decode transcript string: %w", err)
		}
		return parseDocument([]byte(inner), depth+1)
	default:
		return nil, fmt.Errorf("unrecognized transcript payload starting with %q", data[0])
	}
}

func convertSegments(raw []wireSegment) []Segment {
	segments := make([]Segment, 0, len(raw))
	for _, w := range raw {
		if w.Start == nil || w.End == nil {
			continue
		}
		segments = append(segments, Segment{Start: *w.Start, End: *w.End, Text: w.Text})
	}
	return segments
}
