// Package config loads, normalizes, and validates gopsplice configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GOPSPLICE_WORK_DIR. The Config type centralizes the scene alignment lengths,
// encoder and tool binaries, and probe settings the job runner needs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical encoder kinds, and clear validation errors.
package config
