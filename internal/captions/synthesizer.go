package captions

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"clipdeck/internal/backend"
	"clipdeck/internal/config"
	"clipdeck/internal/logging"
	"clipdeck/internal/playback"
	"clipdeck/internal/resources"
	"clipdeck/internal/services"
)

// TranscriptFetcher returns the raw transcript document for a video.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, filename string) ([]byte, error)
}

// Synthesizer builds caption tracks for clips and attaches them to players.
type Synthesizer struct {
	fetcher  TranscriptFetcher
	manager  *resources.Manager
	registry *playback.Registry
	timeline string
	logger   *slog.Logger

	group singleflight.Group
	// attachMu orders resource creation and attachment so the last fetch
	// to resolve for a clip is the one left attached.
	attachMu sync.Mutex
}

// NewSynthesizer wires a synthesizer. timeline selects whether rendered
// documents are re-based to the clip start (config.TimelineClip) or keep
// source times (config.TimelineSource).
func NewSynthesizer(fetcher TranscriptFetcher, manager *resources.Manager, registry *playback.Registry, timeline string, logger *slog.Logger) *Synthesizer {
	if timeline != config.TimelineSource {
		timeline = config.TimelineClip
	}
	return &Synthesizer{
		fetcher:  fetcher,
		manager:  manager,
		registry: registry,
		timeline: timeline,
		logger:   logging.NewComponentLogger(logger, "captions"),
	}
}

// Synthesize fetches the transcript for filename and selects the cues for
// clip. Failures degrade to an empty track.
func (s *Synthesizer) Synthesize(ctx context.Context, filename string, clip backend.Clip) Track {
	track := Track{ClipID: clip.ID.String(), Start: clip.Start, End: clip.End}
	ctx = services.WithClipID(services.WithFilename(ctx, filename), track.ClipID)
	logger := logging.WithContext(ctx, s.logger)

	data, err := s.fetch(ctx, filename)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			logger.Info("no transcript available; captions disabled",
				logging.String(logging.FieldEventType, "transcript_missing"),
			)
		case ctx.Err() != nil:
			logger.Debug("transcript fetch abandoned", logging.Error(err))
		default:
			logging.WarnWithContext(logger, "transcript fetch failed", "transcript_fetch_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "clip plays without captions"),
				logging.String(logging.FieldErrorHint, "check backend reachability or the transcript endpoint"),
			)
		}
		return track
	}

	segments, err := ParseTranscript(data)
	if err != nil {
		logging.WarnWithContext(logger, "transcript unreadable", "transcript_parse_failed",
			logging.Error(err),
			logging.Int("payload_bytes", len(data)),
			logging.String(logging.FieldImpact, "clip plays without captions"),
		)
		return track
	}

	track.Cues = Select(segments, clip.Start, clip.End)
	logger.Debug("captions selected",
		logging.Int("segments", len(segments)),
		logging.Int("cues", len(track.Cues)),
	)
	return track
}

// Load synthesizes captions for clip and attaches them to the player mounted
// for it. The fetch stops when the player unmounts. An empty track detaches
// any caption the player still shows.
func (s *Synthesizer) Load(ctx context.Context, filename string, clip backend.Clip) Track {
	clipID := clip.ID.String()
	mountCtx, ok := s.registry.MountContext(clipID)
	if !ok {
		s.logger.Debug("caption load skipped; clip not mounted", logging.String(logging.FieldClipID, clipID))
		return Track{ClipID: clipID, Start: clip.Start, End: clip.End}
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(mountCtx, cancel)
	defer stop()

	track := s.Synthesize(ctx, filename, clip)

	s.attachMu.Lock()
	defer s.attachMu.Unlock()
	if current, ok := s.registry.MountContext(clipID); ctx.Err() != nil || !ok || current != mountCtx {
		s.logger.Debug("caption result discarded; player unmounted", logging.String(logging.FieldClipID, clipID))
		return track
	}

	doc, count := renderVTT(track.Cues, s.offset(clip))
	if count == 0 {
		s.registry.Detach(clipID)
		return track
	}

	h, err := s.manager.Create(resources.CaptionIdentity(clipID), doc, MIMEType)
	if err != nil {
		logging.WarnWithContext(s.logger, "caption resource creation failed", "caption_resource_failed",
			logging.String(logging.FieldClipID, clipID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "clip plays without captions"),
		)
		return track
	}
	if !s.registry.AttachMount(mountCtx, clipID, h) {
		_ = s.manager.Revoke(h)
		return track
	}
	track.Handle = h
	s.logger.Debug("captions attached",
		logging.String(logging.FieldClipID, clipID),
		logging.Int("cues", count),
		logging.Bool("visible", s.registry.Visible()),
	)
	return track
}

// Render serializes track on the configured timeline.
func (s *Synthesizer) Render(track Track) []byte {
	return RenderVTT(track.Cues, s.offset(backend.Clip{Start: track.Start, End: track.End}))
}

func (s *Synthesizer) offset(clip backend.Clip) float64 {
	if s.timeline == config.TimelineClip {
		return clip.Start
	}
	return 0
}

// fetch shares one in-flight request per filename. Each caller stops waiting
// when its own context ends; the shared request keeps the values of the
// first caller's context but not its cancellation.
func (s *Synthesizer) fetch(ctx context.Context, filename string) ([]byte, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(filename, func() (any, error) {
		return s.fetcher.FetchTranscript(shared, filename)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		data, _ := res.Val.([]byte)
		return data, nil
	}
}
