package playback

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"weak"

	"clipdeck/internal/logging"
	"clipdeck/internal/resources"
)

// Releaser revokes caption handles the registry no longer references.
type Releaser interface {
	Revoke(h *resources.Handle) error
}

// EventKind names a registry-level event.
type EventKind string

const (
	OnMount           EventKind = "mount"
	OnUnmount         EventKind = "unmount"
	OnToggleChanged   EventKind = "toggle_changed"
	OnCaptionAttached EventKind = "caption_attached"
	OnCaptionDetached EventKind = "caption_detached"
)

// Event is delivered to registry subscribers after the change is applied.
type Event struct {
	Kind    EventKind
	ClipID  string
	Visible bool
	Handle  *resources.Handle
}

type entry struct {
	ref     weak.Pointer[Player]
	ctx     context.Context
	cancel  context.CancelFunc
	gen     uint64
	caption *resources.Handle
	cleanup runtime.Cleanup
}

type mountToken struct {
	clipID string
	gen    uint64
}

// Registry maps clip IDs to mounted players without owning them.
type Registry struct {
	releaser Releaser
	logger   *slog.Logger

	mu      sync.Mutex
	visible bool
	entries map[string]*entry
	gen     uint64
	subs    map[uint64]func(Event)
	nextSub uint64
}

// NewRegistry returns an empty registry with the toggle set to visible.
func NewRegistry(releaser Releaser, visible bool, logger *slog.Logger) *Registry {
	return &Registry{
		releaser: releaser,
		logger:   logging.NewComponentLogger(logger, "playback"),
		visible:  visible,
		entries:  make(map[string]*entry),
		subs:     make(map[uint64]func(Event)),
	}
}

// Subscribe registers fn for registry events and returns a func that removes it.
func (r *Registry) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Register mounts p under clipID. A previous mount for the same clip is
// replaced: its context is cancelled and its caption revoked. The returned
// context is cancelled when this mount ends.
func (r *Registry) Register(clipID string, p *Player) context.Context {
	if p == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	r.mu.Lock()
	var pending []func()
	if old, ok := r.entries[clipID]; ok {
		pending = append(pending, r.dropLocked(clipID, old, p)...)
	}
	r.gen++
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{ref: weak.Make(p), ctx: ctx, cancel: cancel, gen: r.gen, caption: p.CaptionResource()}
	e.cleanup = runtime.AddCleanup(p, r.collected, mountToken{clipID: clipID, gen: r.gen})
	r.entries[clipID] = e
	if _, notify := p.setMode(modeFor(r.visible)); notify != nil {
		pending = append(pending, notify)
	}
	pending = append(pending, r.emitLocked(Event{Kind: OnMount, ClipID: clipID, Visible: r.visible}))
	r.mu.Unlock()

	r.logger.Debug("player mounted", logging.String(logging.FieldClipID, clipID))
	run(pending)
	return ctx
}

// Unregister ends the mount for clipID and revokes its caption. Calling it
// for an unknown clip is a no-op.
func (r *Registry) Unregister(clipID string) {
	r.mu.Lock()
	e, ok := r.entries[clipID]
	if !ok {
		r.mu.Unlock()
		return
	}
	pending := r.dropLocked(clipID, e, nil)
	r.mu.Unlock()

	r.logger.Debug("player unmounted", logging.String(logging.FieldClipID, clipID))
	run(pending)
}

// SetToggle updates the caption toggle and applies it to every registered
// player that has a caption attached before returning.
func (r *Registry) SetToggle(visible bool) {
	r.mu.Lock()
	changed := r.visible != visible
	r.visible = visible
	mode := modeFor(visible)
	var pending []func()
	updated := 0
	for _, e := range r.entries {
		p := e.ref.Value()
		if p == nil {
			continue
		}
		ok, notify := p.setMode(mode)
		if ok {
			updated++
		}
		if notify != nil {
			pending = append(pending, notify)
		}
	}
	if changed {
		pending = append(pending, r.emitLocked(Event{Kind: OnToggleChanged, Visible: visible}))
	}
	r.mu.Unlock()

	r.logger.Debug("caption toggle applied",
		logging.Bool("visible", visible),
		logging.Int("players_updated", updated),
	)
	run(pending)
}

// Visible returns the current toggle value.
func (r *Registry) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// Lookup returns the live player mounted for clipID.
func (r *Registry) Lookup(clipID string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, p := r.liveLocked(clipID)
	return p, p != nil
}

// Mounted reports whether a live player is registered for clipID.
func (r *Registry) Mounted(clipID string) bool {
	_, ok := r.Lookup(clipID)
	return ok
}

// MountContext returns the context of the current mount for clipID.
func (r *Registry) MountContext(clipID string) (context.Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, p := r.liveLocked(clipID)
	if p == nil {
		return nil, false
	}
	return e.ctx, true
}

// Attach hands h to the player mounted for clipID using the toggle value
// current at this moment. It returns false when no player is mounted; the
// caller still owns h in that case.
func (r *Registry) Attach(clipID string, h *resources.Handle) bool {
	return r.attach(nil, clipID, h)
}

// AttachMount is Attach bound to the mount whose context is mount. It returns
// false once that mount has ended, even when clipID was mounted again since.
func (r *Registry) AttachMount(mount context.Context, clipID string, h *resources.Handle) bool {
	if mount == nil {
		return false
	}
	return r.attach(mount, clipID, h)
}

func (r *Registry) attach(mount context.Context, clipID string, h *resources.Handle) bool {
	if h == nil {
		return false
	}
	r.mu.Lock()
	e, p := r.liveLocked(clipID)
	if p == nil || (mount != nil && e.ctx != mount) {
		r.mu.Unlock()
		return false
	}
	previous, notify := p.setCaption(h, modeFor(r.visible))
	if e.caption != nil && e.caption != h && e.caption != previous {
		r.revokeLocked(clipID, e.caption)
	}
	e.caption = h
	if previous != nil && previous != h {
		r.revokeLocked(clipID, previous)
	}
	pending := []func(){notify, r.emitLocked(Event{Kind: OnCaptionAttached, ClipID: clipID, Visible: r.visible, Handle: h})}
	r.mu.Unlock()

	run(pending)
	return true
}

// Detach removes and revokes the caption attached to clipID, if any.
func (r *Registry) Detach(clipID string) {
	r.mu.Lock()
	e, p := r.liveLocked(clipID)
	if p == nil {
		r.mu.Unlock()
		return
	}
	previous, notify := p.setCaption(nil, ModeDisabled)
	e.caption = nil
	if previous == nil {
		r.mu.Unlock()
		return
	}
	r.revokeLocked(clipID, previous)
	pending := []func(){notify, r.emitLocked(Event{Kind: OnCaptionDetached, ClipID: clipID, Visible: r.visible, Handle: previous})}
	r.mu.Unlock()

	run(pending)
}

// Len returns the number of live registered players.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.entries {
		if e.ref.Value() != nil {
			count++
		}
	}
	return count
}

// Close unmounts every player.
func (r *Registry) Close() {
	r.mu.Lock()
	var pending []func()
	for clipID, e := range r.entries {
		pending = append(pending, r.dropLocked(clipID, e, nil)...)
	}
	r.mu.Unlock()
	run(pending)
}

func (r *Registry) liveLocked(clipID string) (*entry, *Player) {
	e, ok := r.entries[clipID]
	if !ok {
		return nil, nil
	}
	p := e.ref.Value()
	if p == nil {
		e.cancel()
		delete(r.entries, clipID)
		r.revokeLocked(clipID, e.caption)
		return nil, nil
	}
	return e, p
}

// dropLocked ends a mount. replacement is the player taking over the slot,
// whose caption must survive when it is the same instance.
func (r *Registry) dropLocked(clipID string, e *entry, replacement *Player) []func() {
	e.cancel()
	e.cleanup.Stop()
	delete(r.entries, clipID)

	var pending []func()
	p := e.ref.Value()
	if p != nil && p == replacement {
		return nil
	}
	if p != nil {
		previous, notify := p.setCaption(nil, ModeDisabled)
		pending = append(pending, notify)
		r.revokeLocked(clipID, previous)
	}
	r.revokeLocked(clipID, e.caption)
	pending = append(pending, r.emitLocked(Event{Kind: OnUnmount, ClipID: clipID, Visible: r.visible}))
	return pending
}

// collected runs after a player was garbage collected without unmounting.
func (r *Registry) collected(token mountToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[token.clipID]
	if !ok || e.gen != token.gen {
		return
	}
	e.cancel()
	delete(r.entries, token.clipID)
	r.revokeLocked(token.clipID, e.caption)
}

func (r *Registry) revokeLocked(clipID string, h *resources.Handle) {
	if h == nil || r.releaser == nil {
		return
	}
	if err := r.releaser.Revoke(h); err != nil {
		logging.WarnWithContext(r.logger, "caption revoke failed", "caption_revoke_failed",
			logging.String(logging.FieldClipID, clipID),
			logging.String("handle_id", h.ID()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "caption file remains in the handle directory"),
		)
	}
}

func (r *Registry) emitLocked(event Event) func() {
	if len(r.subs) == 0 {
		return nil
	}
	subs := make([]func(Event), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(event)
		}
	}
}

func run(pending []func()) {
	for _, fn := range pending {
		if fn != nil {
			fn()
		}
	}
}
