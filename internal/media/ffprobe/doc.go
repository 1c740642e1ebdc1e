// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Only container metadata is read. InspectFormat asks ffprobe for the format
// section and Result.Duration reports whether the duration is usable.
package ffprobe
