package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipdeck/internal/backend"
	"clipdeck/internal/services"
)

func newClient(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := backend.New(backend.Config{BaseURL: server.URL, APIToken: "tok"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestListVideosAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "array", body: `[{"filename":"a.mp4","s3_url":"https://cdn/a.mp4"},{"filename":"b.mp4","s3_url":"https://cdn/b.mp4"}]`},
		{name: "wrapped strings", body: `{"videos":["a.mp4","b.mp4"]}`},
		{name: "wrapped objects", body: `{"videos":[{"filename":"a.mp4"},{"filename":"b.mp4"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/videos/" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("unexpected auth header %q", got)
				}
				_, _ = io.WriteString(w, tt.body)
			})
			videos, err := client.ListVideos(context.Background())
			if err != nil {
				t.Fatalf("ListVideos: %v", err)
			}
			if len(videos) != 2 || videos[0].Filename != "a.mp4" || videos[1].Filename != "b.mp4" {
				t.Fatalf("unexpected videos: %+v", videos)
			}
		})
	}
}

func TestUploadStreamsMultipartFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(src, []byte("video-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("unexpected content type %q: %v", r.Header.Get("Content-Type"), err)
			return
		}
		reader := multipart.NewReader(r.Body, params["boundary"])
		part, err := reader.NextPart()
		if err != nil {
			t.Errorf("next part: %v", err)
			return
		}
		if part.FormName() != "file" || part.FileName() != "talk.mp4" {
			t.Errorf("unexpected part %q %q", part.FormName(), part.FileName())
		}
		if got := part.Header.Get("Content-Type"); got != "video/mp4" {
			t.Errorf("unexpected part type %q", got)
		}
		data, _ := io.ReadAll(part)
		if string(data) != "video-bytes" {
			t.Errorf("unexpected part body %q", data)
		}
		_, _ = io.WriteString(w, `{"filename":"talk_1700000000.mp4","message":"Upload Successful"}`)
	})

	name, err := client.Upload(context.Background(), backend.UploadFile{Path: src, Name: "talk.mp4", MediaType: "video/mp4"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if name != "talk_1700000000.mp4" {
		t.Fatalf("unexpected canonical name %q", name)
	}
}

func TestGenerateManualClipsSendsTimestampPairs(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-clips/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("filename") != "talk.mp4" {
			t.Errorf("unexpected filename %q", q.Get("filename"))
		}
		if got := strings.Join(q["timestamps"], ","); got != "0,10,20.5,30" {
			t.Errorf("unexpected timestamps %q", got)
		}
		_, _ = io.WriteString(w, `{"clips":[{"clip_id":11,"start_time":0,"end_time":10,"clip_url":"https://cdn/c0.mp4"},{"clip_id":"12","start_time":20.5,"end_time":30,"clip_url":"https://cdn/c1.mp4"}]}`)
	})

	clips, err := client.GenerateManualClips(context.Background(), "talk.mp4", []backend.Range{{Start: 0, End: 10}, {Start: 20.5, End: 30}})
	if err != nil {
		t.Fatalf("GenerateManualClips: %v", err)
	}
	if len(clips) != 2 || clips[0].ID != "11" || clips[1].ID != "12" || clips[1].Start != 20.5 {
		t.Fatalf("unexpected clips: %+v", clips)
	}
}

func TestGenerateAIClipsPostsJSONAndDecodesAliases(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-ai-clips/" || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Content-Type"))
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["filename"] != "talk.mp4" {
			t.Errorf("unexpected payload %v", payload)
		}
		_, _ = io.WriteString(w, `{"clips":[
			{"clip_index":0,"start":5,"end":15,"clip_url":"https://cdn/ai0.mp4","text":" great moment "},
			{"clip_index":1,"start":40,"end":40,"clip_url":"https://cdn/ai1.mp4"}
		]}`)
	})

	clips, err := client.GenerateAIClips(context.Background(), "talk.mp4")
	if err != nil {
		t.Fatalf("GenerateAIClips: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("expected degenerate clip dropped, got %+v", clips)
	}
	if clips[0].ID != "0" || clips[0].Text != "great moment" || clips[0].Duration() != 10 {
		t.Fatalf("unexpected clip: %+v", clips[0])
	}
}

func TestFetchTranscriptNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Transcript not found"}`)
	})

	_, err := client.FetchTranscript(context.Background(), "missing.mp4")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected remote marker, got %v", err)
	}
	var statusErr *backend.StatusError
	if !errors.As(err, &statusErr) || statusErr.Detail != "Transcript not found" {
		t.Fatalf("unexpected status error: %#v", err)
	}
}

func TestDeleteEndpoints(t *testing.T) {
	var seen []string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		if r.URL.Path == "/delete-video/" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"message":"deleted"}`)
	})

	if err := client.DeleteClip(context.Background(), "7"); err != nil {
		t.Fatalf("DeleteClip: %v", err)
	}
	if err := client.DeleteVideo(context.Background(), "talk.mp4"); !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected remote failure, got %v", err)
	}
	want := []string{"DELETE /delete-clip/?clip_id=7", "DELETE /delete-video/?filename=talk.mp4"}
	if strings.Join(seen, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected requests: %v", seen)
	}
}

func TestDownloadClipResolvesRelativeURL(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media/clips/c0.mp4" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = io.WriteString(w, "clip-bytes")
	})

	download, err := client.DownloadClip(context.Background(), "/media/clips/c0.mp4")
	if err != nil {
		t.Fatalf("DownloadClip: %v", err)
	}
	if string(download.Data) != "clip-bytes" || download.MediaType != "video/mp4" {
		t.Fatalf("unexpected download: %q %q", download.Data, download.MediaType)
	}
}

func TestClipIDUnmarshal(t *testing.T) {
	var ids []backend.ClipID
	if err := json.Unmarshal([]byte(`[5, "abc", null, 12.0]`), &ids); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []backend.ClipID{"5", "abc", "", "12.0"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}
