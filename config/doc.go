// Package config holds the engine's tuning knobs.
//
// Configuration is read from JSON (the host's native format) or, for files
// ending in .toml, from TOML:
//
//	cfg, err := config.Parse(data)       // JSON bytes
//	cfg, err := config.Load("engine.toml")
//
// Missing fields keep their defaults. Empty input yields Default() and logs
// a warning; malformed input returns an *errors.Error describing the parse
// failure and never falls back silently.
package config
