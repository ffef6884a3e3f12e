// Package config loads, normalizes, and validates mpv-scraper configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TVDB_API_KEY. The Config type centralizes every knob the CLI and the scrape
// pipeline need, so the media root, cache location, provider credentials, and
// worker limits are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
