package gatekeeper

import (
	"context"

	"clipdeck/internal/media/ffprobe"
)

// metadataProbe reads container metadata. It is a package-level variable so
// tests can override it.
var metadataProbe = ffprobe.InspectFormat

// SetProbeForTests overrides the metadata probe during tests.
func SetProbeForTests(fn func(context.Context, string, string) (ffprobe.Result, error)) func() {
	previous := metadataProbe
	metadataProbe = fn
	return func() {
		metadataProbe = previous
	}
}
