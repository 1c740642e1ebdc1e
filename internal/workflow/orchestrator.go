package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipdeck/internal/backend"
	"clipdeck/internal/gatekeeper"
	"clipdeck/internal/journal"
	"clipdeck/internal/logging"
	"clipdeck/internal/notifications"
	"clipdeck/internal/services"
)

const stageName = "workflow"

// Orchestrator drives the clip workflow for one session.
type Orchestrator struct {
	client   Backend
	gate     Validator
	journal  Journal
	notifier notifications.Service
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	runID       string
	filename    string
	sideOp      string
	active      bool
	lastFailure error
	videos      []backend.Video
	clips       map[string][]backend.Clip
}

// New constructs an Orchestrator. gate and store may be nil; without a gate
// StartFromPath is unavailable and without a store runs are not journaled.
func New(client Backend, gate Validator, store Journal, notifier notifications.Service, logger *slog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = notifications.Noop()
	}
	return &Orchestrator{
		client:   client,
		gate:     gate,
		journal:  store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		state:    StateIdle,
		clips:    make(map[string][]backend.Clip),
	}
}

// State returns the current workflow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastFailure returns the error that moved the workflow into the error state.
func (o *Orchestrator) LastFailure() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastFailure
}

// StartFromPath validates a local file and starts a run with it. Rejections
// are notified with their reason and the upload is never attempted.
func (o *Orchestrator) StartFromPath(ctx context.Context, path, mediaType string, req Request) (Result, error) {
	if o.gate == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, stageName, "start", "no gatekeeper configured", nil)
	}
	if err := o.checkAvailable("start"); err != nil {
		o.reject(ctx, notifications.EventRequestRejected, filepath.Base(path), err)
		return Result{}, err
	}
	validated, err := o.gate.Validate(ctx, gatekeeper.Candidate{Path: path, MediaType: mediaType})
	if err != nil {
		o.reject(ctx, notifications.EventUploadRejected, filepath.Base(path), err)
		return Result{}, err
	}
	req.File = validated
	return o.Start(ctx, req)
}

// Start runs upload (when a file is given), clip generation and listing
// refresh. It is allowed from idle, ready and error; starting from error
// acknowledges the previous failure.
func (o *Orchestrator) Start(ctx context.Context, req Request) (Result, error) {
	label := requestLabel(req)
	if err := o.checkAvailable("start"); err != nil {
		o.reject(ctx, notifications.EventRequestRejected, label, err)
		return Result{}, err
	}
	if req.File == nil && strings.TrimSpace(req.Remote) == "" {
		err := services.Fail(services.ReasonNoInput, services.ErrValidation, stageName, "start", "select a file or name an uploaded video", nil)
		o.reject(ctx, notifications.EventRequestRejected, label, err)
		return Result{}, err
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeAI
		if len(req.Ranges) > 0 {
			mode = ModeManual
		}
	}
	var ranges []backend.Range
	dropped := 0
	switch mode {
	case ModeManual:
		ranges, dropped = ParseRanges(req.Ranges, o.logger)
		if len(ranges) == 0 {
			err := services.Fail(services.ReasonNoRanges, services.ErrValidation, stageName, "start",
				fmt.Sprintf("none of the %d ranges is usable", len(req.Ranges)), nil)
			o.reject(ctx, notifications.EventRequestRejected, label, err)
			return Result{}, err
		}
	case ModeAI:
	default:
		return Result{}, services.Wrap(services.ErrValidation, stageName, "start", fmt.Sprintf("unknown clip mode %q", mode), nil)
	}

	runID, err := o.claim(ctx, label, mode)
	if err != nil {
		o.reject(ctx, notifications.EventRequestRejected, label, err)
		return Result{}, err
	}
	defer o.release()
	ctx = services.WithRunID(ctx, runID)
	result := Result{RunID: runID, Mode: mode, DroppedRanges: dropped}

	filename := strings.TrimSpace(req.Remote)
	if req.File != nil {
		ctx = services.WithFilename(ctx, req.File.Name())
		o.transition(ctx, StateUploading, services.ReasonNone, fmt.Sprintf("uploading %s", req.File.Name()))
		name, err := o.client.Upload(ctx, backend.UploadFile{
			Path:      req.File.Path(),
			Name:      req.File.Name(),
			MediaType: req.File.MediaType(),
		})
		if err != nil {
			return result, o.fail(ctx, req.File.Name(), services.Fail(services.ReasonUploadFailed, services.ErrRemote, stageName, "upload", "upload failed", err))
		}
		filename = name
		o.publish(ctx, notifications.EventUploadCompleted, notifications.Payload{"filename": filename})
	}
	ctx = services.WithFilename(ctx, filename)
	result.Filename = filename
	o.setFilename(filename)

	o.transition(ctx, StateGenerating, services.ReasonNone, fmt.Sprintf("requesting %s clips", mode))
	var clips []backend.Clip
	if mode == ModeManual {
		clips, err = o.client.GenerateManualClips(ctx, filename, ranges)
	} else {
		clips, err = o.client.GenerateAIClips(ctx, filename)
	}
	if err != nil {
		return result, o.fail(ctx, filename, services.Fail(services.ReasonGenerationFailed, services.ErrRemote, stageName, "generate", "clip generation failed", err))
	}

	o.mu.Lock()
	o.clips[filename] = slices.Clone(clips)
	o.mu.Unlock()
	result.Clips = clips
	if o.journal != nil {
		if err := o.journal.UpdateOutcome(ctx, runID, filename, len(clips)); err != nil {
			o.logger.Debug("journal outcome update failed", logging.Error(err))
		}
	}

	_, _ = o.RefreshVideos(ctx)

	o.transition(ctx, StateReady, services.ReasonNone, fmt.Sprintf("%d clips ready", len(clips)))
	o.publish(ctx, notifications.EventClipsReady, notifications.Payload{
		"filename": filename,
		"count":    len(clips),
		"mode":     string(mode),
	})
	return result, nil
}

// Acknowledge returns the workflow from error to idle. It reports whether a
// transition happened.
func (o *Orchestrator) Acknowledge(ctx context.Context) bool {
	o.mu.Lock()
	if o.state != StateError {
		o.mu.Unlock()
		return false
	}
	runID := o.runID
	o.mu.Unlock()
	o.transition(services.WithRunID(ctx, runID), StateIdle, services.ReasonNone, "failure acknowledged")
	return true
}

// checkAvailable rejects work while a run or side transition is in flight.
func (o *Orchestrator) checkAvailable(op string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.availableLocked(op)
}

func (o *Orchestrator) availableLocked(op string) error {
	if o.active || o.state.Busy() {
		return services.Fail(services.ReasonBusy, services.ErrBusy, stageName, op,
			fmt.Sprintf("run %s is %s", o.runID, o.state), nil)
	}
	if o.sideOp != "" {
		return services.Fail(services.ReasonBusy, services.ErrBusy, stageName, op,
			fmt.Sprintf("%s in progress", o.sideOp), nil)
	}
	return nil
}

// claim reserves the workflow for a new run.
func (o *Orchestrator) claim(ctx context.Context, input string, mode Mode) (string, error) {
	o.mu.Lock()
	if err := o.availableLocked("start"); err != nil {
		o.mu.Unlock()
		return "", err
	}
	previousState := o.state
	previousRun := o.runID
	runID := uuid.NewString()
	o.runID = runID
	o.filename = ""
	o.lastFailure = nil
	o.active = true
	o.mu.Unlock()

	if previousState == StateError {
		o.record(ctx, previousRun, StateError, StateIdle, services.ReasonNone, "acknowledged by new run")
	}
	if o.journal != nil {
		if err := o.journal.BeginRun(ctx, journal.Run{
			ID:        runID,
			Input:     input,
			Mode:      string(mode),
			State:     string(StateIdle),
			StartedAt: time.Now(),
		}); err != nil {
			logging.WarnWithContext(o.logger, "journal run insert failed", "journal_write_failed",
				logging.String(logging.FieldRunID, runID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "run is missing from history"),
			)
		}
	}

	o.mu.Lock()
	o.state = StateIdle
	o.mu.Unlock()
	o.logger.Info("workflow run started",
		logging.String(logging.FieldRunID, runID),
		logging.String("input", input),
		logging.String("mode", string(mode)),
	)
	return runID, nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.active = false
	o.mu.Unlock()
}

func (o *Orchestrator) setFilename(name string) {
	o.mu.Lock()
	o.filename = name
	o.mu.Unlock()
}

func (o *Orchestrator) transition(ctx context.Context, to State, reason services.Reason, message string) {
	o.mu.Lock()
	from := o.state
	o.state = to
	runID := o.runID
	o.mu.Unlock()

	logger := logging.WithContext(ctx, o.logger)
	attrs := []logging.Attr{
		logging.String("from", string(from)),
		logging.String(logging.FieldState, string(to)),
	}
	if reason != services.ReasonNone {
		attrs = append(attrs, logging.String(logging.FieldReason, string(reason)))
	}
	logger.Info("workflow state changed", logging.Args(attrs...)...)
	o.record(ctx, runID, from, to, reason, message)
}

func (o *Orchestrator) record(ctx context.Context, runID string, from, to State, reason services.Reason, message string) {
	if o.journal == nil || runID == "" {
		return
	}
	if err := o.journal.RecordTransition(ctx, journal.Transition{
		RunID:   runID,
		From:    string(from),
		To:      string(to),
		Reason:  string(reason),
		Message: message,
	}); err != nil {
		logging.WarnWithContext(o.logger, "journal transition write failed", "journal_write_failed",
			logging.String(logging.FieldRunID, runID),
			logging.String(logging.FieldState, string(to)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "history is missing this transition"),
		)
	}
}

// fail moves the run into error and notifies the user.
func (o *Orchestrator) fail(ctx context.Context, filename string, err error) error {
	reason := services.ReasonOf(err)
	o.mu.Lock()
	o.lastFailure = err
	o.mu.Unlock()

	logging.ErrorWithContext(logging.WithContext(ctx, o.logger), "workflow run failed", "workflow_failed",
		logging.String(logging.FieldReason, string(reason)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the backend and start a new run"),
		logging.String(logging.FieldImpact, "no clips were produced"),
	)
	o.transition(ctx, StateError, reason, errorMessage(err))
	o.publish(ctx, notifications.EventWorkflowFailed, notifications.Payload{
		"filename": filename,
		"reason":   string(reason),
		"error":    rootCause(err),
	})
	return err
}

func (o *Orchestrator) reject(ctx context.Context, event notifications.Event, label string, err error) {
	reason := services.ReasonOf(err)
	logging.WithContext(ctx, o.logger).Info("request rejected",
		logging.String(logging.FieldReason, string(reason)),
		logging.String("input", label),
		logging.Error(err),
	)
	o.publish(ctx, event, notifications.Payload{
		"filename": label,
		"reason":   string(reason),
		"error":    rootCause(err),
	})
}

func (o *Orchestrator) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := o.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			o.logger.Debug("notification skipped; context cancelled", logging.String(logging.FieldEventType, string(event)))
			return
		}
		o.logger.Debug("notification failed", logging.String(logging.FieldEventType, string(event)), logging.Error(err))
	}
}

func requestLabel(req Request) string {
	if req.File != nil {
		return req.File.Name()
	}
	return strings.TrimSpace(req.Remote)
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}

// rootCause returns the innermost backend error for user-facing messages.
func rootCause(err error) error {
	var status *backend.StatusError
	if errors.As(err, &status) {
		return status
	}
	return err
}
