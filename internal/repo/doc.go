// Package repo locates the enclosing Envlock repository and resolves the
// paths of its persisted artifacts: the developer registry, the per
// environment encrypted blobs, the repository config, and the audit log.
//
// State is loaded fresh at the start of each invocation; nothing in this
// package caches across commands.
package repo
