// Package errors defines the sentinel error taxonomy for Envlock.
//
// Every failure an Envlock command can surface wraps exactly one of these
// sentinels, so callers can classify failures with errors.Is without parsing
// message text, and the CLI can map each kind to a distinct exit code.
//
// Error messages never include secret values. They name the error kind and
// the affected environment only.
package errors
