// Package editor orchestrates the decrypt → edit → validate → re-seal →
// commit pipeline for one environment.
//
// Invariants the session maintains:
//
//   - Plaintext only ever exists in memory or in a mode-0600 temporary file
//     that is removed on every exit path, including signals. It is never
//     written to the blob's permanent path.
//   - The persisted blob changes only at the final atomic rename, so readers
//     always see either the old or the new blob in full.
//   - An exclusive lock file serializes concurrent edit sessions per
//     environment; a second session fails fast with LockContention.
//   - Re-sealing uses the registry as read at session start, so the edited
//     blob's recipient set always reflects the current developers file.
package editor
