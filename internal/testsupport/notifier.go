package testsupport

import (
	"context"
	"sync"

	"clipdeck/internal/notifications"
)

// Notice is one captured notification.
type Notice struct {
	Event   notifications.Event
	Payload notifications.Payload
}

// Recorder captures published notifications.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Publish records the notice.
func (r *Recorder) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Event: event, Payload: payload})
	return nil
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Find returns the first notice for event.
func (r *Recorder) Find(event notifications.Event) (Notice, bool) {
	for _, n := range r.Notices() {
		if n.Event == event {
			return n, true
		}
	}
	return Notice{}, false
}
