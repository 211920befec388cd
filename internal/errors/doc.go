// Package errors provides structured, coded errors for the sigil CLI and
// tooling layer.
//
// Each registered code carries a category, message, detail, and
// documentation URL. Errors render as a single compact line or as a
// formatted terminal block with hints.
//
// The reactive core does not use this package: core misuse panics with
// sentinel errors and soft failures are logged. Coded errors exist for the
// surfaces a person actually reads, configuration loading and CLI output.
package errors
