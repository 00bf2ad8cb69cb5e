package editor

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/envlock/envlock/internal/errors"
)

// lock is an exclusive advisory lock on one environment's blob, held for the
// whole edit session so concurrent editors fail fast instead of racing the
// commit rename. Readers never take it; they rely on the atomic rename.
type lock struct {
	path string
}

// acquireLock creates the lock file with O_EXCL. An existing lock file means
// another session holds the environment and surfaces LockContention
// immediately, with the holder's pid when readable.
func acquireLock(path string) (*lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			holder := ""
			if data, readErr := os.ReadFile(path); readErr == nil {
				if pid, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil {
					holder = fmt.Sprintf(" (held by pid %d)", pid)
				}
			}
			return nil, fmt.Errorf("lock file %s exists%s: %w", path, holder, apperrors.ErrLockContention)
		}
		return nil, fmt.Errorf("failed to create lock file %s: %w", path, err)
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file %s: %w", path, err)
	}
	return &lock{path: path}, nil
}

// release removes the lock file. Safe to call more than once.
func (l *lock) release() {
	if l == nil {
		return
	}
	_ = os.Remove(l.path)
}
