// Package logger provides leveled logging for Envlock CLI commands.
//
// Verbosity is controlled by two flags:
//
//   - --verbose: shows info messages
//   - --debug: shows debug messages
//
// Warnings and errors are always written to stderr. Commands create a logger
// in their PersistentPreRun and pass it to internal functions.
//
// Secret values must never be passed to any log method.
package logger
