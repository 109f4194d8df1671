// Package config loads, normalizes, and validates lantern configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LANTERN_API_TOKEN. The Config type centralizes every knob the CLI needs:
// deployment API endpoint and credentials, watch cadences and backoff limits,
// and the optional record archive location.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical filter modes, and clear validation errors.
package config
