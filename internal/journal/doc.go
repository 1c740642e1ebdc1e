// Package journal records clip workflow runs and their state transitions in
// SQLite.
//
// Each run gets a UUID when the workflow starts; every state change the
// orchestrator makes is appended as a transition row and mirrored onto the
// run row so `clipdeck history` can list recent runs without replaying the
// log. The database lives under the configured state directory. Schema
// changes bump schemaVersion; users delete journal.db to adopt a new schema.
package journal
