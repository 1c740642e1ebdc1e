// Package services defines shared utilities consumed by the workflow,
// gatekeeper, caption and backend packages.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, clip IDs, filenames, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and the Failure type that
//     attaches the short reason codes shown to users (invalid-type, too-long,
//     upload-failed, ...).
//
// Use these helpers when wiring new logic so error classification and
// observability stay uniform across the CLI.
package services
