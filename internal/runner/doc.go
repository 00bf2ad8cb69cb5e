// Package runner spawns child processes with a resolved environment
// injected, stdio inherited, signals forwarded, and the child's exit status
// propagated to the caller.
package runner
