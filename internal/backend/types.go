package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Video is a source video known to the backend. Filename is its identity.
type Video struct {
	Filename  string `json:"filename"`
	RemoteURL string `json:"remote_url,omitempty"`
}

// ClipID identifies a clip. The backend emits both string and integer forms.
type ClipID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ClipID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ClipID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("clip id: %w", err)
	}
	*id = ClipID(n.String())
	return nil
}

func (id ClipID) String() string { return string(id) }

// Clip is one generated excerpt of a source video. Start < End always holds
// for clips returned by this package.
type Clip struct {
	ID    ClipID  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	URL   string  `json:"url"`
	Text  string  `json:"text,omitempty"`
}

// Duration returns End - Start in seconds.
func (c Clip) Duration() float64 { return c.End - c.Start }

// Range is one manual clip request in seconds.
type Range struct {
	Start float64
	End   float64
}

// UploadFile describes a local file to send to the upload endpoint.
type UploadFile struct {
	Path      string
	Name      string
	MediaType string
}

// Download holds the bytes of a fetched clip.
type Download struct {
	Data      []byte
	MediaType string
}

type wireClip struct {
	ClipID    *ClipID  `json:"clip_id"`
	ClipIndex *ClipID  `json:"clip_index"`
	ID        *ClipID  `json:"id"`
	StartTime *float64 `json:"start_time"`
	Start     *float64 `json:"start"`
	EndTime   *float64 `json:"end_time"`
	End       *float64 `json:"end"`
	ClipURL   string   `json:"clip_url"`
	URL       string   `json:"url"`
	Text      string   `json:"text"`
}

func (w wireClip) toClip(position int) Clip {
	clip := Clip{
		URL:  firstNonEmpty(w.ClipURL, w.URL),
		Text: strings.TrimSpace(w.Text),
	}
	switch {
	case w.ClipID != nil && *w.ClipID != "":
		clip.ID = *w.ClipID
	case w.ClipIndex != nil && *w.ClipIndex != "":
		clip.ID = *w.ClipIndex
	case w.ID != nil && *w.ID != "":
		clip.ID = *w.ID
	default:
		clip.ID = ClipID(strconv.Itoa(position))
	}
	clip.Start = firstFloat(w.StartTime, w.Start)
	clip.End = firstFloat(w.EndTime, w.End)
	return clip
}

// decodeClips accepts {"clips": [...]} or a bare array. Entries whose end does
// not follow their start are dropped and counted.
func decodeClips(data []byte) ([]Clip, int, error) {
	data = bytes.TrimSpace(data)
	var raw []wireClip
	switch {
	case len(data) == 0:
		return nil, 0, errors.New("empty clip payload")
	case data[0] == '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, 0, err
		}
	default:
		var envelope struct {
			Clips []wireClip `json:"clips"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, 0, err
		}
		raw = envelope.Clips
	}

	clips := make([]Clip, 0, len(raw))
	dropped := 0
	for i, entry := range raw {
		clip := entry.toClip(i)
		if !(clip.Start < clip.End) {
			dropped++
			continue
		}
		clips = append(clips, clip)
	}
	return clips, dropped, nil
}

type wireVideo struct {
	Filename  string `json:"filename"`
	S3URL     string `json:"s3_url"`
	URL       string `json:"url"`
	RemoteURL string `json:"remote_url"`
}

// decodeVideos accepts a bare array of objects, or {"videos": [...]} whose
// entries are either filename strings or objects.
func decodeVideos(data []byte) ([]Video, error) {
	data = bytes.TrimSpace(data)
	var entries []json.RawMessage
	switch {
	case len(data) == 0:
		return nil, errors.New("empty video payload")
	case data[0] == '[':
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	default:
		var envelope struct {
			Videos []json.RawMessage `json:"videos"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, err
		}
		entries = envelope.Videos
	}

	videos := make([]Video, 0, len(entries))
	for _, entry := range entries {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 {
			continue
		}
		if entry[0] == '"' {
			var name string
			if err := json.Unmarshal(entry, &name); err != nil {
				return nil, err
			}
			if name = strings.TrimSpace(name); name != "" {
				videos = append(videos, Video{Filename: name})
			}
			continue
		}
		var w wireVideo
		if err := json.Unmarshal(entry, &w); err != nil {
			return nil, err
		}
		if name := strings.TrimSpace(w.Filename); name != "" {
			videos = append(videos, Video{Filename: name, RemoteURL: firstNonEmpty(w.S3URL, w.RemoteURL, w.URL)})
		}
	}
	return videos, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstFloat(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
