package editor

import (
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/envlock/envlock/internal/audit"
	"github.com/envlock/envlock/internal/document"
	"github.com/envlock/envlock/internal/keyring"
	logger "github.com/envlock/envlock/internal/logging"
	"github.com/envlock/envlock/internal/repo"
	"github.com/envlock/envlock/internal/store"
)

// Session is one edit of one environment's encrypted store. The pipeline is
// decrypt, edit, validate, re-seal, atomic commit; any failure before the
// commit rename leaves the persisted blob untouched.
type Session struct {
	Repo        *repo.Repository
	Environment string
	PrivateKey  *rsa.PrivateKey
	Log         logger.Logger

	// Launch opens the plaintext file for editing and returns when the edit
	// is finished. When nil, DefaultLaunch is used.
	Launch func(path string) error

	// Interactive reopens the editor after a validation failure instead of
	// aborting, until the content stops changing.
	Interactive bool

	// ReportInvalid is called with a validation error before the editor is
	// reopened in interactive mode.
	ReportInvalid func(err error)
}

// Result summarizes a committed (or skipped) edit.
type Result struct {
	// Changed is false when the editor exited without modifying the content;
	// the blob is left byte-for-byte as it was to keep version control quiet.
	Changed bool

	// Recipients is the number of keys the new blob was sealed to.
	Recipients int
}

// Edit runs the full edit pipeline and returns how it ended.
func (s *Session) Edit() (*Result, error) {
	lk, err := acquireLock(s.Repo.LockPath(s.Environment))
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", s.Environment, err)
	}
	defer lk.release()

	// The registry is read up front so a broken registry aborts before any
	// plaintext exists.
	registry, err := keyring.Load(s.Repo.RegistryPath())
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", s.Environment, err)
	}

	doc, err := s.decrypt()
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", s.Environment, err)
	}

	tmp, cleanup, err := s.writePlaintext(doc, lk)
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", s.Environment, err)
	}
	defer cleanup()

	edited, changed, err := s.editLoop(tmp)
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", s.Environment, err)
	}
	if !changed {
		s.Log.Infof("Content unchanged, skipping re-encryption of %s", s.Environment)
		return &Result{Changed: false, Recipients: registry.Len()}, nil
	}

	blob, err := store.Seal(edited, registry.Keys())
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", s.Environment, err)
	}

	if err := store.WriteFile(s.Repo.BlobPath(s.Environment), blob); err != nil {
		return nil, fmt.Errorf("environment %s: %w", s.Environment, err)
	}

	fingerprint, _ := keyring.Fingerprint(s.PrivateKey)
	audit.Log(s.Repo.AuditPath(), audit.Entry{
		Operation:   "edit",
		Environment: s.Environment,
		Recipients:  registry.Len(),
		Fingerprint: fingerprint,
	})

	return &Result{Changed: true, Recipients: registry.Len()}, nil
}

// decrypt opens the current blob, or starts from an empty document when the
// environment does not exist yet.
func (s *Session) decrypt() (*document.Document, error) {
	blob, err := store.ReadFile(s.Repo.BlobPath(s.Environment))
	if os.IsNotExist(err) {
		s.Log.Infof("Environment %s does not exist yet, starting empty", s.Environment)
		return document.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return store.Open(blob, s.PrivateKey)
}

// writePlaintext places the document in a 0600 temporary file and arranges
// removal on every exit path, including interrupt and termination signals.
func (s *Session) writePlaintext(doc *document.Document, lk *lock) (string, func(), error) {
	tmp, err := os.CreateTemp("", "envlock-*.env")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	path := tmp.Name()

	if _, err := tmp.Write(doc.Serialize()); err != nil {
		tmp.Close()
		os.Remove(path)
		return "", nil, fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", nil, fmt.Errorf("failed to close temporary file: %w", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig, ok := <-signals
		if !ok {
			return
		}
		os.Remove(path)
		lk.release()
		// Mirror the conventional 128+signal exit status.
		if sysSig, ok := sig.(syscall.Signal); ok {
			os.Exit(128 + int(sysSig))
		}
		os.Exit(1)
	}()

	cleanup := func() {
		signal.Stop(signals)
		close(signals)
		os.Remove(path)
	}
	return path, cleanup, nil
}

// editLoop launches the editor, then validates the result. In interactive
// mode a validation failure reopens the editor; the loop ends when the user
// produces valid content or stops changing it. Returns changed=false when the
// final content is identical to what the editor was given.
func (s *Session) editLoop(path string) (*document.Document, bool, error) {
	launch := s.Launch
	if launch == nil {
		launch = DefaultLaunch
	}

	original, err := checksum(path)
	if err != nil {
		return nil, false, err
	}

	previous := original
	for {
		if err := launch(path); err != nil {
			return nil, false, err
		}

		current, err := checksum(path)
		if err != nil {
			return nil, false, err
		}
		if current == original {
			return nil, false, nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read edited file: %w", err)
		}

		doc, err := document.Parse(data)
		if err == nil {
			return doc, true, nil
		}

		if !s.Interactive || current == previous {
			return nil, false, err
		}
		if s.ReportInvalid != nil {
			s.ReportInvalid(err)
		}
		previous = current
	}
}

// checksum hashes the plaintext file so unchanged content can skip
// re-encryption, which would otherwise produce a fresh ciphertext and a noisy
// version-control diff.
func checksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read temporary file: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// DefaultLaunch opens path in $EDITOR (vi when unset) through the shell, so
// EDITOR values with flags keep working.
func DefaultLaunch(path string) error {
	editorCmd := os.Getenv("EDITOR")
	if editorCmd == "" {
		editorCmd = "vi"
	}

	quoted := "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
	cmd := exec.Command("sh", "-c", editorCmd+" -- "+quoted)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	return nil
}
