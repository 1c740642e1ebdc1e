package captions_test

import (
	"math"
	"strings"
	"testing"

	"clipdeck/internal/captions"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00.000"},
		{1.5, "00:00:01.500"},
		{61.2346, "00:01:01.235"},
		{3725.0004, "01:02:05.000"},
		{-3, "00:00:00.000"},
		{59.9996, "00:01:00.000"},
	}
	for _, tt := range tests {
		if got := captions.FormatTimestamp(tt.seconds); got != tt.want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatTimestampClampsHugeValues(t *testing.T) {
	ceiling := captions.FormatTimestamp(math.Inf(1))
	for _, seconds := range []float64{1e16, 1e17, math.MaxFloat64} {
		got := captions.FormatTimestamp(seconds)
		if strings.Contains(got, "-") {
			t.Fatalf("FormatTimestamp(%v) = %q, want no negative fields", seconds, got)
		}
		if got != ceiling {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", seconds, got, ceiling)
		}
	}

	doc := string(captions.RenderVTT([]captions.Cue{{Start: 10, End: 1e17, Text: "long tail"}}, 0))
	want := "1\n00:00:10.000 --> " + ceiling + "\nlong tail\n"
	if !strings.Contains(doc, want) {
		t.Fatalf("expected clamped cue %q in:\n%s", want, doc)
	}
}

func TestRenderVTTNumbersCues(t *testing.T) {
	doc := string(captions.RenderVTT([]captions.Cue{
		{Start: 0, End: 4, Text: "hi"},
		{Start: 3, End: 9, Text: "there"},
	}, 0))
	want := "WEBVTT\n\n" +
		"1\n00:00:00.000 --> 00:00:04.000\nhi\n\n" +
		"2\n00:00:03.000 --> 00:00:09.000\nthere\n\n"
	if doc != want {
		t.Fatalf("unexpected document:\n%s\nwant:\n%s", doc, want)
	}
}

func TestRenderVTTDropsDegenerateCues(t *testing.T) {
	doc := string(captions.RenderVTT([]captions.Cue{
		{Start: 1, End: 2, Text: "keep"},
		{Start: 5, End: 5.0004, Text: "rounds to nothing"},
		{Start: 7, End: 6, Text: "backwards"},
		{Start: 8, End: 9, Text: "   "},
		{Start: 10, End: 11, Text: "also keep"},
	}, 0))
	if strings.Contains(doc, "nothing") || strings.Contains(doc, "backwards") {
		t.Fatalf("degenerate cue rendered:\n%s", doc)
	}
	if !strings.Contains(doc, "2\n00:00:10.000 --> 00:00:11.000\nalso keep") {
		t.Fatalf("numbering not contiguous:\n%s", doc)
	}
	if strings.Contains(doc, "\n3\n") {
		t.Fatalf("unexpected third cue:\n%s", doc)
	}
}

func TestRenderVTTShiftsAndEscapes(t *testing.T) {
	doc := string(captions.RenderVTT([]captions.Cue{{Start: 12.5, End: 14, Text: "a < b & c"}}, 10))
	if !strings.Contains(doc, "00:00:02.500 --> 00:00:04.000\na &lt; b &amp; c") {
		t.Fatalf("unexpected document:\n%s", doc)
	}
}

func TestRenderVTTEmpty(t *testing.T) {
	if got := string(captions.RenderVTT(nil, 0)); got != "WEBVTT\n\n" {
		t.Fatalf("unexpected empty document %q", got)
	}
}
