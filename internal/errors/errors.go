package errors

import (
	"errors"
	"fmt"
)

// Access errors indicate the invoking identity cannot read a store.
var (
	// ErrAccessDenied indicates no recipient entry in a blob unwraps with the
	// identity's private key.
	ErrAccessDenied = errors.New("identity is not a recipient of this environment")

	// ErrRegistry indicates the developers registry is malformed.
	ErrRegistry = errors.New("developer registry is invalid")
)

// Store errors indicate the persisted blob itself is unusable.
var (
	// ErrCorruptStore indicates ciphertext authentication or envelope parsing
	// failed; the blob has been tampered with or truncated.
	ErrCorruptStore = errors.New("encrypted store is corrupt")

	// ErrEncoding indicates a document could not be sealed.
	ErrEncoding = errors.New("document cannot be encoded")
)

// Editing errors surface from the edit pipeline.
var (
	// ErrLockContention indicates another editor session holds the
	// environment's lock.
	ErrLockContention = errors.New("environment is locked by another editor session")

	// ErrValidation indicates edited plaintext is not a valid set of
	// KEY=VALUE pairs.
	ErrValidation = errors.New("document failed validation")
)

// Lookup and execution errors.
var (
	// ErrUnknownEnvironment indicates no encrypted store exists for the
	// requested environment name.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrUnsupportedFormat indicates an export format name is not recognised.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrSpawn indicates a child command could not be located or started.
	ErrSpawn = errors.New("command could not be started")
)

// Exit codes for each error kind. Child processes spawned by run/start
// propagate their own exit code instead.
const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitAccessDenied       = 3
	ExitCorruptStore       = 4
	ExitRegistry           = 5
	ExitLockContention     = 6
	ExitValidation         = 7
	ExitUnknownEnvironment = 8
	ExitUnsupportedFormat  = 9
	ExitSpawn              = 10
)

// ChildExitError carries a child process's nonzero exit status through the
// command layer so the CLI can mirror it without printing a diagnostic.
type ChildExitError struct {
	Code int
}

func (e *ChildExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// ExitCode maps an error to the process exit code the CLI should use.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var child *ChildExitError
	if errors.As(err, &child) {
		return child.Code
	}

	switch {
	case errors.Is(err, ErrAccessDenied):
		return ExitAccessDenied
	case errors.Is(err, ErrCorruptStore), errors.Is(err, ErrEncoding):
		return ExitCorruptStore
	case errors.Is(err, ErrRegistry):
		return ExitRegistry
	case errors.Is(err, ErrLockContention):
		return ExitLockContention
	case errors.Is(err, ErrValidation):
		return ExitValidation
	case errors.Is(err, ErrUnknownEnvironment):
		return ExitUnknownEnvironment
	case errors.Is(err, ErrUnsupportedFormat):
		return ExitUnsupportedFormat
	case errors.Is(err, ErrSpawn):
		return ExitSpawn
	}
	return ExitFailure
}
