package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/envlock/envlock/internal/document"
	apperrors "github.com/envlock/envlock/internal/errors"
)

// Run spawns command with the ambient environment overlaid by the resolved
// document (the document wins on collision), inherits stdio, forwards
// termination signals to the child, and returns the child's exit code.
//
// Nothing from the resolved document is written to any file or log.
func Run(resolved *document.Document, command string, args []string) (int, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = Overlay(os.Environ(), resolved)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("command %q: %v: %w", command, err, apperrors.ErrSpawn)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-signals:
				// Best effort; the child may already be gone.
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	close(done)
	signal.Stop(signals)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if code := exitErr.ExitCode(); code >= 0 {
				return code, nil
			}
			// Killed by a signal; mirror the shell convention.
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				return 128 + int(status.Signal()), nil
			}
			return 1, nil
		}
		return 0, fmt.Errorf("command %q: %w", command, err)
	}
	return 0, nil
}

// Overlay builds a child environment from the ambient environ plus the
// resolved document. Ambient variables keep their position; a resolved
// variable either replaces the ambient entry in place or is appended.
func Overlay(environ []string, resolved *document.Document) []string {
	out := make([]string, 0, len(environ)+resolved.Len())
	replaced := make(map[string]bool, resolved.Len())

	for _, entry := range environ {
		key, _, _ := strings.Cut(entry, "=")
		if value, ok := resolved.Get(key); ok {
			out = append(out, key+"="+value)
			replaced[key] = true
			continue
		}
		out = append(out, entry)
	}
	for _, p := range resolved.Pairs() {
		if !replaced[p.Key] {
			out = append(out, p.Key+"="+p.Value)
		}
	}
	return out
}
