// Package config loads, normalizes, and validates factreel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY, OPENAI_API_KEY and PEXELS_API_KEY. The Config type
// centralizes every knob the pipeline, CLI and HTTP surface need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
