// Package audit appends operation records to the repository's append-only
// JSONL audit trail (.envlock/audit.jsonl).
//
// Every mutation of an encrypted store (edit, rotate, init) is recorded with
// the acting user, environment, and recipient count. Audit writes are best
// effort: a failed append never fails the operation that triggered it.
package audit
