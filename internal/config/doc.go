// Package config loads and validates sigil.json, the project configuration
// for the sigil CLI.
//
// Configuration covers the inspector server, metrics registration, runtime
// diagnostics, and benchmark workload defaults. Every field has a default;
// a missing sigil.json is an error only for commands that need project
// context, and callers that can run without one use New directly.
package config
