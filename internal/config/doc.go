// Package config loads, normalizes, and validates videomixer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VIDEOMIXER_FFMPEG. The Config type centralizes the knobs the CLI and API
// server need: tool binaries, caption styling defaults, output defaults, and
// the transcript/history locations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
