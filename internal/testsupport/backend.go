package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeClip is a clip held by FakeBackend.
type FakeClip struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// RecordedRequest is one request served by FakeBackend.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// FakeBackend is an in-memory clip service speaking the same HTTP surface
// as the real backend.
type FakeBackend struct {
	Server *httptest.Server

	mu          sync.Mutex
	videos      []string
	clips       map[string][]FakeClip
	transcripts map[string]string
	aiClips     []FakeClip
	failures    map[string]int
	requests    []RecordedRequest
	uploadAs    string
}

// NewFakeBackend starts a fake backend and closes it when the test ends.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		clips:       make(map[string][]FakeClip),
		transcripts: make(map[string]string),
		failures:    make(map[string]int),
		aiClips: []FakeClip{
			{Index: 0, Start: 5, End: 20, Text: "the opening hook"},
			{Index: 1, Start: 42, End: 60, Text: "the punchline"},
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /videos/", f.handleVideos)
	mux.HandleFunc("POST /upload/", f.handleUpload)
	mux.HandleFunc("POST /generate-clips/", f.handleManual)
	mux.HandleFunc("POST /generate-ai-clips/", f.handleAI)
	mux.HandleFunc("GET /get-clips/", f.handleClips)
	mux.HandleFunc("GET /transcript/", f.handleTranscript)
	mux.HandleFunc("DELETE /delete-clip/", f.handleDeleteClip)
	mux.HandleFunc("DELETE /delete-video/", f.handleDeleteVideo)
	mux.HandleFunc("GET /media/", f.handleMedia)
	f.Server = httptest.NewServer(f.record(mux))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake service.
func (f *FakeBackend) URL() string { return f.Server.URL }

// AddVideo registers an already uploaded video.
func (f *FakeBackend) AddVideo(filename string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !slices.Contains(f.videos, filename) {
		f.videos = append(f.videos, filename)
	}
}

// SetClips replaces the clip batch for filename.
func (f *FakeBackend) SetClips(filename string, clips ...FakeClip) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clips[filename] = append([]FakeClip(nil), clips...)
}

// SetAIClips sets the clips returned by AI generation.
func (f *FakeBackend) SetAIClips(clips ...FakeClip) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aiClips = append([]FakeClip(nil), clips...)
}

// SetTranscript stores the serialized transcript document for filename.
func (f *FakeBackend) SetTranscript(filename, document string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts[filename] = document
}

// UploadAs makes uploads report name as the canonical filename.
func (f *FakeBackend) UploadAs(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadAs = name
}

// FailWith makes every request to path answer with status.
func (f *FakeBackend) FailWith(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = status
}

// ClearFailures removes every injected failure.
func (f *FakeBackend) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.failures)
}

// Requests returns recorded requests for path, or all when path is empty.
func (f *FakeBackend) Requests(path string) []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RecordedRequest
	for _, r := range f.requests {
		if path == "" || r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Clips returns the clips stored for filename.
func (f *FakeBackend) Clips(filename string) []FakeClip {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeClip(nil), f.clips[filename]...)
}

// Videos returns the stored video names.
func (f *FakeBackend) Videos() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.videos...)
}

func (f *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(strings.NewReader(string(body)))
		}
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: body})
		status, failing := f.failures[r.URL.Path]
		f.mu.Unlock()
		if failing {
			writeJSON(w, status, map[string]string{"detail": fmt.Sprintf("injected failure for %s", r.URL.Path)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeBackend) handleVideos(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	out := make([]map[string]string, 0, len(f.videos))
	for _, name := range f.videos {
		out = append(out, map[string]string{"filename": name, "s3_url": f.Server.URL + "/media/" + url.PathEscape(name)})
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeBackend) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "file field missing"})
		return
	}
	_, _ = io.Copy(io.Discard, file)
	_ = file.Close()

	f.mu.Lock()
	name := header.Filename
	if f.uploadAs != "" {
		name = f.uploadAs
	}
	if !slices.Contains(f.videos, name) {
		f.videos = append(f.videos, name)
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"filename": name, "message": "uploaded"})
}

func (f *FakeBackend) handleManual(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	stamps := r.URL.Query()["timestamps"]
	if filename == "" || len(stamps) == 0 || len(stamps)%2 != 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "filename and timestamp pairs required"})
		return
	}
	clips := make([]FakeClip, 0, len(stamps)/2)
	for i := 0; i+1 < len(stamps); i += 2 {
		start, errS := strconv.ParseFloat(stamps[i], 64)
		end, errE := strconv.ParseFloat(stamps[i+1], 64)
		if errS != nil || errE != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "bad timestamp"})
			return
		}
		clips = append(clips, FakeClip{Index: i / 2, Start: start, End: end})
	}
	f.mu.Lock()
	f.clips[filename] = clips
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"clips": f.wireClips(filename, clips)})
}

func (f *FakeBackend) handleAI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "filename required"})
		return
	}
	f.mu.Lock()
	clips := append([]FakeClip(nil), f.aiClips...)
	f.clips[req.Filename] = clips
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"clips": f.wireClips(req.Filename, clips)})
}

func (f *FakeBackend) handleClips(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	writeJSON(w, http.StatusOK, map[string]any{"clips": f.wireClips(filename, f.Clips(filename))})
}

func (f *FakeBackend) handleTranscript(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	f.mu.Lock()
	doc, ok := f.transcripts[filename]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Transcript not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": doc})
}

func (f *FakeBackend) handleDeleteClip(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("clip_id"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "clip_id must be an integer"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, clips := range f.clips {
		for i, c := range clips {
			if c.Index == id {
				f.clips[name] = slices.Delete(clips, i, i+1)
				writeJSON(w, http.StatusOK, map[string]string{"message": "Clip deleted"})
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Clip not found"})
}

func (f *FakeBackend) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := slices.Index(f.videos, filename)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Video not found"})
		return
	}
	f.videos = slices.Delete(f.videos, idx, idx+1)
	delete(f.clips, filename)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Video deleted"})
}

func (f *FakeBackend) handleMedia(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "video/mp4")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "media:"+r.URL.Path)
}

func (f *FakeBackend) wireClips(filename string, clips []FakeClip) []map[string]any {
	out := make([]map[string]any, 0, len(clips))
	for _, c := range clips {
		entry := map[string]any{
			"clip_index": c.Index,
			"start_time": c.Start,
			"end_time":   c.End,
			"clip_url":   fmt.Sprintf("/media/%s/clip_%d.mp4", url.PathEscape(filename), c.Index),
		}
		if c.Text != "" {
			entry["text"] = c.Text
		}
		out = append(out, entry)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
