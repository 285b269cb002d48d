// Package config loads, normalizes, and validates shellac configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// batch pipeline needs, from archive directories to the fingerprint matching
// thresholds, so downstream code receives sanitized paths and clear validation
// errors.
//
// Always obtain settings through this package so every component sees the same
// normalized view of the environment.
package config
