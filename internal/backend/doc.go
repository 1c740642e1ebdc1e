// Package backend is the REST client for the clip-generation service.
//
// It covers the listing, upload, clip generation (manual ranges and AI
// selection), transcript, deletion and download endpoints. Responses are
// decoded tolerantly: the service has shipped several field spellings for the
// same clip attributes (clip_id or clip_index, start_time or start, ...) and
// both bare arrays and wrapped objects for listings.
//
// Non-2xx responses surface as *StatusError, which matches
// services.ErrRemote with errors.Is (and services.ErrNotFound for 404).
package backend
