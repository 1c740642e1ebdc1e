// Package workflow sequences upload, clip generation and listing refresh for
// a single viewing session.
//
// The Orchestrator is a small state machine: idle, uploading,
// generating_clips, ready and error. Start validates local preconditions
// before touching the network, uploads a gatekeeper-validated file (or uses a
// filename the backend already knows), requests exactly one manual or AI
// clip generation, replaces the clip batch and refreshes the video listing.
// Upload and generation failures park the orchestrator in error until the
// user acknowledges it or starts a new run. Deletes are side transitions that
// only mutate local state after the backend confirms them.
//
// Every transition is journaled under a run ID and logged with run_id,
// filename and state fields. Nothing is retried automatically.
package workflow
