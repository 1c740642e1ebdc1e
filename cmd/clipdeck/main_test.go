package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipdeck/internal/services"
	"clipdeck/internal/testsupport"
	"clipdeck/internal/workflow"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.fake.URL())

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "--format", "xml", "videos")
	if err == nil || !strings.Contains(err.Error(), "--format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestVideosJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.AddVideo("talk.mp4")

	out, _, err := runCLI(t, env, "--format", "json", "videos")
	if err != nil {
		t.Fatalf("videos: %v", err)
	}
	var videos []struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal([]byte(out), &videos); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(videos) != 1 || videos[0].Filename != "talk.mp4" {
		t.Fatalf("unexpected videos: %+v", videos)
	}
}

func TestRunRemoteManualAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.AddVideo("talk.mp4")

	out, _, err := runCLI(t, env, "run", "--remote", "talk.mp4", "-r", "0:05-0:20", "-r", "1:00-1:30", "-r", "bad-1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "2 manual clip(s) for talk.mp4")
	requireContains(t, out, "Skipped 1 unusable range(s)")
	requireContains(t, out, "1:30")

	out, _, err = runCLI(t, env, "--format", "yaml", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "state: ready")
	requireContains(t, out, "clip_count: 2")
}

func TestRunRejectsMalformedRangeFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "run", "--remote", "talk.mp4", "-r", "0:05")
	if err == nil || !strings.Contains(err.Error(), "START-END") {
		t.Fatalf("expected range flag error, got %v", err)
	}
	if len(env.fake.Requests("")) != 0 {
		t.Fatal("malformed flags must not reach the backend")
	}
}

func TestRunUploadsLocalFile(t *testing.T) {
	env := setupCLITestEnv(t)
	stubProbe(t, "90.0")
	path := testsupport.WriteMedia(t, t.TempDir(), "demo.mp4", 4096)

	out, _, err := runCLI(t, env, "run", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "2 ai clip(s) for demo.mp4")
	if got := len(env.fake.Requests("/upload/")); got != 1 {
		t.Fatalf("upload requests = %d, want 1", got)
	}
}

func TestRunRejectsLongFile(t *testing.T) {
	env := setupCLITestEnv(t)
	stubProbe(t, "5000.0")
	path := testsupport.WriteMedia(t, t.TempDir(), "long.mp4", 4096)

	_, _, err := runCLI(t, env, "run", path)
	if services.ReasonOf(err) != services.ReasonTooLong {
		t.Fatalf("expected too-long failure, got %v", err)
	}
	if got := len(env.fake.Requests("/upload/")); got != 0 {
		t.Fatalf("upload requests = %d, want 0", got)
	}
}

func TestCaptionsRendersClipTimeline(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.AddVideo("talk.mp4")
	env.fake.SetClips("talk.mp4", testsupport.FakeClip{Index: 0, Start: 10, End: 20})
	env.fake.SetTranscript("talk.mp4", `[{"start":11,"end":12.5,"text":"hello <there>"},{"start":19,"end":21,"text":"straddles the end"}]`)

	out, _, err := runCLI(t, env, "captions", "talk.mp4")
	if err != nil {
		t.Fatalf("captions: %v", err)
	}
	requireContains(t, out, "WEBVTT")
	requireContains(t, out, "00:00:01.000 --> 00:00:02.500")
	requireContains(t, out, "hello &lt;there&gt;")
	if strings.Contains(out, "straddles") {
		t.Fatalf("straddling segment rendered: %q", out)
	}

	dir := t.TempDir()
	out, _, err = runCLI(t, env, "captions", "talk.mp4", "0", "--out", dir, "--timeline", "source")
	if err != nil {
		t.Fatalf("captions --out: %v", err)
	}
	requireContains(t, out, "1 cue(s)")
	data, err := os.ReadFile(filepath.Join(dir, "talk_clip-0.vtt"))
	if err != nil {
		t.Fatalf("read caption file: %v", err)
	}
	requireContains(t, string(data), "00:00:11.000 --> 00:00:12.500")
}

func TestDownloadSavesNumberedClip(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.AddVideo("talk.mp4")
	env.fake.SetClips("talk.mp4", testsupport.FakeClip{Index: 0, Start: 0, End: 5}, testsupport.FakeClip{Index: 1, Start: 5, End: 10})

	if _, _, err := runCLI(t, env, "download", "talk.mp4", "1"); err != nil {
		t.Fatalf("download: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(env.downloads, "talk", "clip_2.mp4"))
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "media:/media/talk.mp4/clip_1.mp4" {
		t.Fatalf("unexpected clip bytes %q", data)
	}
	entries, err := os.ReadDir(env.handles)
	if err != nil {
		t.Fatalf("read handle dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("download handle left behind: %v", entries)
	}
	if _, _, err := runCLI(t, env, "download", "talk.mp4", "9"); err == nil {
		t.Fatal("expected unknown clip to fail")
	}
}

func TestDeleteClipFailureKeepsClip(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.AddVideo("talk.mp4")
	env.fake.SetClips("talk.mp4", testsupport.FakeClip{Index: 0, Start: 0, End: 5})
	env.fake.FailWith("/delete-clip/", http.StatusInternalServerError)

	_, _, err := runCLI(t, env, "delete", "clip", "talk.mp4", "0")
	if services.ReasonOf(err) != services.ReasonDeleteFailed {
		t.Fatalf("expected delete-failed, got %v", err)
	}
	if got := env.fake.Clips("talk.mp4"); len(got) != 1 {
		t.Fatalf("clip should survive: %+v", got)
	}

	env.fake.ClearFailures()
	out, _, err := runCLI(t, env, "delete", "clip", "talk.mp4", "0")
	if err != nil {
		t.Fatalf("delete clip: %v", err)
	}
	requireContains(t, out, "Deleted clip 0 of talk.mp4")
}

func TestDoctorOffline(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "doctor", "--offline")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "FFprobe:")
	requireContains(t, out, "ffprobe version test")
	requireContains(t, out, "Run journal:")
	if strings.Contains(out, "[ERROR]") {
		t.Fatalf("unexpected failure in %q", out)
	}
}

func TestDoctorReportsUnreachableBackend(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.Server.Close()
	out, _, err := runCLI(t, env, "doctor")
	if err == nil {
		t.Fatalf("expected doctor to fail, output %q", out)
	}
	requireContains(t, out, "Clip backend:")
	requireContains(t, out, "[ERROR]")
}

func TestWatchDrivesToggle(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fake.AddVideo("talk.mp4")
	env.fake.SetClips("talk.mp4", testsupport.FakeClip{Index: 0, Start: 10, End: 20}, testsupport.FakeClip{Index: 1, Start: 30, End: 40})
	env.fake.SetTranscript("talk.mp4", `{"segments":[{"start":11,"end":12,"text":"first"},{"start":31,"end":33,"text":"second"}]}`)

	input := strings.NewReader("off\nstatus\nunmount 0\nmount 7\nquit\n")
	out, _, err := runCLIWithInput(t, env, input, "watch", "talk.mp4")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	requireContains(t, out, "mounted clip 0")
	requireContains(t, out, "captions attached to clip 1")
	requireContains(t, out, "captions off")
	requireContains(t, out, "Hidden")
	requireContains(t, out, "unmounted clip 0")
	requireContains(t, out, "unknown clip 7")

	entries, err := os.ReadDir(env.handles)
	if err != nil {
		t.Fatalf("read handle dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("caption handles left behind: %v", entries)
	}
}

func TestParseRangeFlags(t *testing.T) {
	inputs, err := parseRangeFlags([]string{"0:05-0:20", "75-90.5", " - "})
	if err != nil {
		t.Fatalf("parseRangeFlags: %v", err)
	}
	want := []workflow.RangeInput{{Start: "0:05", End: "0:20"}, {Start: "75", End: "90.5"}, {Start: " ", End: " "}}
	if len(inputs) != len(want) {
		t.Fatalf("inputs = %+v", inputs)
	}
	for i := range want {
		if inputs[i] != want[i] {
			t.Fatalf("input %d = %+v, want %+v", i, inputs[i], want[i])
		}
	}
	if _, err := parseRangeFlags([]string{"30"}); err == nil {
		t.Fatal("expected error for missing dash")
	}
}

func TestDisplayLabel(t *testing.T) {
	tests := map[string]string{
		"generating_clips": "Generating Clips",
		"ready":            "Ready",
		"upload-failed":    "Upload Failed",
		"":                 "-",
	}
	for in, want := range tests {
		if got := displayLabel(in); got != want {
			t.Fatalf("displayLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
