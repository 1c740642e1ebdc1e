// Package resources owns ephemeral local handles: loadable files created from
// in-memory bytes (caption documents, downloaded clips) or linked to existing
// files (probe targets).
//
// The Manager keeps at most one live handle per identity. Creating a handle
// for an identity revokes the previous one first, and Close revokes every
// handle still live, so nothing created during a session survives it.
package resources
