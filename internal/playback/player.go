package playback

import (
	"slices"
	"sync"

	"clipdeck/internal/resources"
)

// CaptionMode is the render mode of a player's caption resource.
type CaptionMode string

const (
	// ModeDisabled means no caption resource is attached.
	ModeDisabled CaptionMode = "disabled"
	ModeShowing  CaptionMode = "showing"
	ModeHidden   CaptionMode = "hidden"
)

func modeFor(visible bool) CaptionMode {
	if visible {
		return ModeShowing
	}
	return ModeHidden
}

// PlayerEventKind names a change observed on a single player.
type PlayerEventKind string

const (
	PlayerCaptionChanged PlayerEventKind = "caption_changed"
	PlayerModeChanged    PlayerEventKind = "mode_changed"
)

// PlayerEvent describes the player state after a change.
type PlayerEvent struct {
	Kind     PlayerEventKind
	ClipID   string
	Resource *resources.Handle
	Mode     CaptionMode
}

// Player is one playback instance showing a clip or a source video.
type Player struct {
	clipID string
	source string

	mu      sync.Mutex
	caption *resources.Handle
	mode    CaptionMode
	subs    []func(PlayerEvent)
}

// NewPlayer returns a player for clipID that plays sourceURL.
func NewPlayer(clipID, sourceURL string) *Player {
	return &Player{clipID: clipID, source: sourceURL, mode: ModeDisabled}
}

// ClipID returns the clip the player was created for.
func (p *Player) ClipID() string { return p.clipID }

// SourceURL returns the media the player plays.
func (p *Player) SourceURL() string { return p.source }

// CaptionResource returns the attached caption handle, or nil.
func (p *Player) CaptionResource() *resources.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.caption
}

// CaptionMode returns the current caption render mode.
func (p *Player) CaptionMode() CaptionMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Subscribe registers fn for caption and mode changes on this player.
func (p *Player) Subscribe(fn func(PlayerEvent)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	p.mu.Unlock()
}

// setCaption swaps the attached resource. The returned notify func delivers
// the event and must be called once the caller holds no locks.
func (p *Player) setCaption(h *resources.Handle, mode CaptionMode) (*resources.Handle, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	previous := p.caption
	p.caption = h
	if h == nil {
		mode = ModeDisabled
	}
	p.mode = mode
	return previous, p.notifier(PlayerEvent{Kind: PlayerCaptionChanged, ClipID: p.clipID, Resource: h, Mode: mode})
}

// setMode updates the mode when a resource is attached. Players without a
// caption are left alone.
func (p *Player) setMode(mode CaptionMode) (bool, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.caption == nil || p.mode == mode {
		return false, nil
	}
	p.mode = mode
	return true, p.notifier(PlayerEvent{Kind: PlayerModeChanged, ClipID: p.clipID, Resource: p.caption, Mode: mode})
}

func (p *Player) notifier(event PlayerEvent) func() {
	if len(p.subs) == 0 {
		return nil
	}
	subs := slices.Clone(p.subs)
	return func() {
		for _, fn := range subs {
			fn(event)
		}
	}
}
