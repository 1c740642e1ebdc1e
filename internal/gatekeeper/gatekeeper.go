package gatekeeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipdeck/internal/logging"
	"clipdeck/internal/resources"
	"clipdeck/internal/services"
)

const stageName = "gatekeeper"

// Options configures a Gatekeeper.
type Options struct {
	AllowedTypes  []string
	MaxDuration   time.Duration
	FFprobeBinary string
}

// Gatekeeper applies the pre-upload checks.
type Gatekeeper struct {
	allowed     map[string]struct{}
	maxDuration time.Duration
	binary      string
	resources   *resources.Manager
	logger      *slog.Logger
}

// New constructs a Gatekeeper. The resource manager provides the temporary
// handle used while probing.
func New(opts Options, manager *resources.Manager, logger *slog.Logger) (*Gatekeeper, error) {
	if manager == nil {
		return nil, errors.New("gatekeeper: resource manager is required")
	}
	if opts.MaxDuration <= 0 {
		return nil, errors.New("gatekeeper: max duration must be positive")
	}
	allowed := make(map[string]struct{}, len(opts.AllowedTypes))
	for _, value := range opts.AllowedTypes {
		if value = normalizeType(value); value != "" {
			allowed[value] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil, errors.New("gatekeeper: at least one allowed type is required")
	}
	return &Gatekeeper{
		allowed:     allowed,
		maxDuration: opts.MaxDuration,
		binary:      opts.FFprobeBinary,
		resources:   manager,
		logger:      logging.NewComponentLogger(logger, stageName),
	}, nil
}

// Allowed reports whether mediaType is on the allow-list.
func (g *Gatekeeper) Allowed(mediaType string) bool {
	_, ok := g.allowed[normalizeType(mediaType)]
	return ok
}

// Validate checks c and returns a Validated file or a *services.Failure with
// one of invalid-type, unreadable-metadata, too-long or no-input.
func (g *Gatekeeper) Validate(ctx context.Context, c Candidate) (*Validated, error) {
	path := strings.TrimSpace(c.Path)
	if path == "" {
		return nil, services.Fail(services.ReasonNoInput, services.ErrValidation, stageName, "validate", "no file selected", nil)
	}

	mediaType := normalizeType(c.MediaType)
	if mediaType == "" {
		mediaType = DeclaredType(path)
	}
	logger := g.logger.With(logging.String("path", path), logging.String("media_type", mediaType))
	if !g.Allowed(mediaType) {
		logger.Info("upload rejected", logging.String(logging.FieldReason, string(services.ReasonInvalidType)))
		return nil, services.Fail(services.ReasonInvalidType, services.ErrValidation, stageName, "validate",
			fmt.Sprintf("media type %q is not accepted", displayType(mediaType)), nil)
	}

	handle, err := g.resources.Link(resources.ProbeIdentity(uuid.NewString()), path, mediaType)
	if err != nil {
		logger.Info("upload rejected", logging.String(logging.FieldReason, string(services.ReasonUnreadableMetadata)), logging.Error(err))
		return nil, services.Fail(services.ReasonUnreadableMetadata, services.ErrValidation, stageName, "open", "file cannot be read", err)
	}
	defer func() {
		if err := g.resources.Revoke(handle); err != nil {
			logger.Debug("probe handle revoke failed", logging.Error(err))
		}
	}()

	result, err := metadataProbe(ctx, g.binary, handle.Path())
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, stageName, "probe", "metadata probe interrupted", ctx.Err())
		}
		logging.WarnWithContext(logger, "metadata probe failed", "probe_failed",
			logging.Error(err),
			logging.String(logging.FieldReason, string(services.ReasonUnreadableMetadata)),
			logging.String(logging.FieldErrorHint, "confirm the file plays locally and that ffprobe is installed"),
			logging.String(logging.FieldImpact, "file was not uploaded"),
		)
		return nil, services.Fail(services.ReasonUnreadableMetadata, services.ErrExternalTool, stageName, "probe", "metadata could not be read", err)
	}

	seconds, ok := result.Duration()
	if !ok {
		logger.Info("upload rejected",
			logging.String(logging.FieldReason, string(services.ReasonUnreadableMetadata)),
			logging.String("duration_raw", result.Format.Duration),
		)
		return nil, services.Fail(services.ReasonUnreadableMetadata, services.ErrValidation, stageName, "probe",
			fmt.Sprintf("duration %q is not usable", result.Format.Duration), nil)
	}

	duration := secondsToDuration(seconds)
	if duration > g.maxDuration {
		logger.Info("upload rejected",
			logging.String(logging.FieldReason, string(services.ReasonTooLong)),
			logging.Duration("duration", duration),
			logging.Duration("max_duration", g.maxDuration),
		)
		return nil, services.Fail(services.ReasonTooLong, services.ErrValidation, stageName, "validate",
			fmt.Sprintf("duration %s exceeds the %s limit", duration.Round(time.Second), g.maxDuration), nil)
	}

	logger.Debug("upload candidate accepted", logging.Duration("duration", duration), logging.Int64("size_bytes", handle.Size()))
	return &Validated{
		path:      path,
		name:      filepath.Base(path),
		mediaType: mediaType,
		duration:  duration,
		size:      handle.Size(),
	}, nil
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds >= math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds * float64(time.Second))
}

func displayType(mediaType string) string {
	if mediaType == "" {
		return "unknown"
	}
	return mediaType
}
