// Package preflight provides readiness checks for the binaries, directories
// and services clipdeck depends on.
//
// The "clipdeck doctor" command renders RunAll's results as a table, and
// "clipdeck run" calls the directory and ffprobe checks before touching the
// backend so a missing tool fails fast instead of after a long upload.
package preflight
