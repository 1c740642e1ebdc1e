// Package playback tracks live clip players and keeps their caption state
// consistent with the session-wide caption toggle.
//
// A Player is the declarative model of one on-screen playback instance: it
// exposes the caption resource currently attached to it and the mode that
// resource should render in. The Registry holds weak references to mounted
// players keyed by clip ID, hands out a mount context that is cancelled on
// unmount, and applies toggle changes to every registered player in a single
// pass. Attach always reads the toggle at attach time.
package playback
