package captions_test

import (
	"errors"
	"testing"

	"clipdeck/internal/captions"
)

func TestParseTranscriptShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{
			name:    "segments object",
			payload: `{"text":"hi there","segments":[{"id":0,"start":0,"end":4,"text":" hi"},{"id":1,"start":3,"end":9,"text":" there"}]}`,
			want:    2,
		},
		{
			name:    "serialized envelope",
			payload: `{"transcript":"{\"segments\":[{\"start\":1.5,\"end\":2.25,\"text\":\"one\"}]}"}`,
			want:    1,
		},
		{
			name:    "object envelope",
			payload: `{"transcript":{"segments":[{"start":1,"end":2,"text":"a"},{"start":2,"end":3,"text":"b"}]}}`,
			want:    2,
		},
		{
			name:    "bare array",
			payload: `[{"start":0,"end":1,"text":"x"}]`,
			want:    1,
		},
		{
			name:    "missing timestamps skipped",
			payload: `{"segments":[{"start":0,"text":"no end"},{"end":2,"text":"no start"},{"start":0,"end":2,"text":"ok"}]}`,
			want:    1,
		},
		{
			name:    "empty segment list",
			payload: `{"segments":[]}`,
			want:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := captions.ParseTranscript([]byte(tt.payload))
			if err != nil {
				t.Fatalf("ParseTranscript: %v", err)
			}
			if len(segments) != tt.want {
				t.Fatalf("got %d segments, want %d: %+v", len(segments), tt.want, segments)
			}
		})
	}
}

func TestParseTranscriptSerializedValues(t *testing.T) {
	segments, err := captions.ParseTranscript([]byte(`{"transcript":"{\"segments\":[{\"start\":1.5,\"end\":2.25,\"text\":\"one\"}]}"}`))
	if err != nil {
		t.Fatalf("ParseTranscript: %v", err)
	}
	got := segments[0]
	if got.Start != 1.5 || got.End != 2.25 || got.Text != "one" {
		t.Fatalf("unexpected segment: %+v", got)
	}
}

func TestParseTranscriptRejectsMalformed(t *testing.T) {
	for _, payload := range []string{
		``,
		`null`,
		`{"transcript":""}`,
		`{"transcript":"plain words, not json"}`,
		`{"words":[]}`,
		`{"segments":[{"start":"zero"}]}`,
		`<html>oops</html>`,
	} {
		if _, err := captions.ParseTranscript([]byte(payload)); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
	if _, err := captions.ParseTranscript(nil); !errors.Is(err, captions.ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
}
