// Package gatekeeper validates a local video before any upload is attempted.
//
// Validation runs in a fixed order: the declared media type is checked against
// the allow-list without touching the file, then container metadata is probed
// through a short-lived resource handle, then the duration is compared with
// the configured ceiling. A Validated value can only be produced here, so
// callers that require one cannot upload an unchecked file.
package gatekeeper
