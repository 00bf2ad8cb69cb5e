// Package exporter renders a resolved environment into an output format:
// shell-sourceable lines, a flat JSON object, or a container env file.
// Rendering has no side effects; callers decide where the bytes go.
package exporter
