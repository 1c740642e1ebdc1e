// Package config loads, normalizes, and validates clipdeck configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPDECK_API_TOKEN. The Config type centralizes every knob the CLI needs:
// backend location, upload gatekeeping limits, caption defaults and the local
// directories used for state and ephemeral handles.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
