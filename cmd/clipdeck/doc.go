// Package main hosts the clipdeck CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into calls on the
// internal packages: upload and clip generation runs, listings, deletes,
// caption rendering, clip downloads, run history and health checks. It owns
// configuration resolution, logger construction and output formatting so
// subcommands stay declarative.
package main
