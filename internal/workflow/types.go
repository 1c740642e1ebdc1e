package workflow

import (
	"context"

	"clipdeck/internal/backend"
	"clipdeck/internal/gatekeeper"
	"clipdeck/internal/journal"
)

// State is the orchestrator's workflow state.
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateGenerating State = "generating_clips"
	StateReady      State = "ready"
	StateError      State = "error"
)

// Busy reports whether a run holds the workflow.
func (s State) Busy() bool {
	return s == StateUploading || s == StateGenerating
}

// Mode selects how clips are generated.
type Mode string

const (
	ModeManual Mode = "manual"
	ModeAI     Mode = "ai"
)

// RangeInput is one user-supplied start/end pair, as typed.
type RangeInput struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Request starts a workflow run. Exactly one of File or Remote is used; File
// wins when both are set.
type Request struct {
	File   *gatekeeper.Validated
	Remote string
	Mode   Mode
	Ranges []RangeInput
}

// Result summarizes a completed run.
type Result struct {
	RunID         string         `json:"run_id" yaml:"run_id"`
	Filename      string         `json:"filename" yaml:"filename"`
	Mode          Mode           `json:"mode" yaml:"mode"`
	Clips         []backend.Clip `json:"clips" yaml:"clips"`
	DroppedRanges int            `json:"dropped_ranges,omitempty" yaml:"dropped_ranges,omitempty"`
}

// Backend is the subset of the clip service the orchestrator drives.
type Backend interface {
	ListVideos(ctx context.Context) ([]backend.Video, error)
	Upload(ctx context.Context, file backend.UploadFile) (string, error)
	GenerateManualClips(ctx context.Context, filename string, ranges []backend.Range) ([]backend.Clip, error)
	GenerateAIClips(ctx context.Context, filename string) ([]backend.Clip, error)
	FetchClips(ctx context.Context, filename string) ([]backend.Clip, error)
	DeleteClip(ctx context.Context, id backend.ClipID) error
	DeleteVideo(ctx context.Context, filename string) error
}

// Validator checks local files before upload.
type Validator interface {
	Validate(ctx context.Context, c gatekeeper.Candidate) (*gatekeeper.Validated, error)
}

// Journal persists runs and transitions.
type Journal interface {
	BeginRun(ctx context.Context, run journal.Run) error
	RecordTransition(ctx context.Context, t journal.Transition) error
	UpdateOutcome(ctx context.Context, runID, filename string, clipCount int) error
}
