package editor

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/envlock/envlock/internal/document"
	apperrors "github.com/envlock/envlock/internal/errors"
	"github.com/envlock/envlock/internal/keyring"
	logger "github.com/envlock/envlock/internal/logging"
	"github.com/envlock/envlock/internal/repo"
	"github.com/envlock/envlock/internal/store"
)

type fixture struct {
	repo  *repo.Repository
	priv  *rsa.PrivateKey
	pub   keyring.PublicKey
	extra *rsa.PrivateKey // second registered identity
}

// newFixture builds a repository with a registry of one or two identities and
// a sealed default environment holding EXISTING=1.
func newFixture(t *testing.T, twoIdentities bool) *fixture {
	t.Helper()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, repo.DirName, "config"), 0755); err != nil {
		t.Fatalf("failed to create repo layout: %v", err)
	}
	r, err := repo.Open(root)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	registry, err := keyring.MarshalPublicKey(&priv.PublicKey, "alice")
	if err != nil {
		t.Fatalf("failed to marshal public key: %v", err)
	}

	f := &fixture{repo: r, priv: priv}

	var sealTo []keyring.PublicKey
	fingerprint, err := keyring.Fingerprint(priv)
	if err != nil {
		t.Fatalf("failed to fingerprint key: %v", err)
	}
	f.pub = keyring.PublicKey{RSA: &priv.PublicKey, Fingerprint: fingerprint}
	sealTo = append(sealTo, f.pub)

	if twoIdentities {
		extra, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("failed to generate RSA key: %v", err)
		}
		extraFingerprint, err := keyring.Fingerprint(extra)
		if err != nil {
			t.Fatalf("failed to fingerprint key: %v", err)
		}
		f.extra = extra
		sealTo = append(sealTo, keyring.PublicKey{RSA: &extra.PublicKey, Fingerprint: extraFingerprint})
	}

	if err := os.WriteFile(r.RegistryPath(), registry, 0644); err != nil {
		t.Fatalf("failed to write registry: %v", err)
	}

	doc := document.New()
	doc.Set("EXISTING", "1")
	blob, err := store.Seal(doc, sealTo)
	if err != nil {
		t.Fatalf("failed to seal fixture blob: %v", err)
	}
	if err := store.WriteFile(r.BlobPath("default"), blob); err != nil {
		t.Fatalf("failed to write fixture blob: %v", err)
	}

	return f
}

func (f *fixture) session(launch func(path string) error) *Session {
	return &Session{
		Repo:        f.repo,
		Environment: "default",
		PrivateKey:  f.priv,
		Log:         logger.Logger{},
		Launch:      launch,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readBlobBytes(t *testing.T, f *fixture) []byte {
	t.Helper()
	data, err := os.ReadFile(f.repo.BlobPath("default"))
	if err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	return data
}

func TestEdit_CommitsChanges(t *testing.T) {
	f := newFixture(t, false)

	session := f.session(func(path string) error {
		writeFile(t, path, "EXISTING=1\nADDED=yes\n")
		return nil
	})

	result, err := session.Edit()
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if !result.Changed {
		t.Fatal("Expected Changed=true")
	}

	blob, err := store.ReadFile(f.repo.BlobPath("default"))
	if err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	doc, err := store.Open(blob, f.priv)
	if err != nil {
		t.Fatalf("failed to open blob: %v", err)
	}
	if v, _ := doc.Get("ADDED"); v != "yes" {
		t.Errorf("Expected ADDED=yes after edit, got: %q", v)
	}

	// The lock is gone, so a second edit can proceed.
	if _, err := os.Stat(f.repo.LockPath("default")); !os.IsNotExist(err) {
		t.Error("Expected lock file to be removed after edit")
	}
}

func TestEdit_UnchangedContentSkipsReseal(t *testing.T) {
	f := newFixture(t, false)
	before := readBlobBytes(t, f)

	session := f.session(func(path string) error { return nil })

	result, err := session.Edit()
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if result.Changed {
		t.Error("Expected Changed=false for an untouched file")
	}

	after := readBlobBytes(t, f)
	if string(before) != string(after) {
		t.Error("Expected blob to be byte-for-byte unchanged")
	}
}

func TestEdit_ValidationFailureLeavesBlobUntouched(t *testing.T) {
	f := newFixture(t, false)
	before := readBlobBytes(t, f)

	session := f.session(func(path string) error {
		writeFile(t, path, "THIS IS NOT A DOCUMENT\n")
		return nil
	})

	if _, err := session.Edit(); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("Expected ErrValidation, got: %v", err)
	}

	after := readBlobBytes(t, f)
	if string(before) != string(after) {
		t.Error("Expected blob to be byte-for-byte unchanged after a failed edit")
	}
	if _, err := os.Stat(f.repo.LockPath("default")); !os.IsNotExist(err) {
		t.Error("Expected lock file to be removed after a failed edit")
	}
}

func TestEdit_InteractiveRetryAfterValidationFailure(t *testing.T) {
	f := newFixture(t, false)

	attempts := 0
	session := f.session(func(path string) error {
		attempts++
		if attempts == 1 {
			writeFile(t, path, "broken line\n")
		} else {
			writeFile(t, path, "FIXED=yes\n")
		}
		return nil
	})
	session.Interactive = true

	reported := 0
	session.ReportInvalid = func(err error) { reported++ }

	result, err := session.Edit()
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if !result.Changed || attempts != 2 || reported != 1 {
		t.Errorf("Expected one retry (attempts=%d, reported=%d, changed=%t)", attempts, reported, result.Changed)
	}
}

func TestEdit_LockContention(t *testing.T) {
	f := newFixture(t, false)
	writeFile(t, f.repo.LockPath("default"), "12345\n")

	session := f.session(func(path string) error {
		t.Fatal("editor must not launch under contention")
		return nil
	})

	if _, err := session.Edit(); !errors.Is(err, apperrors.ErrLockContention) {
		t.Errorf("Expected ErrLockContention, got: %v", err)
	}
}

func TestEdit_ConcurrentSessionsExactlyOneWins(t *testing.T) {
	f := newFixture(t, false)

	var secondErr error
	first := f.session(func(path string) error {
		// While the first session holds the lock, a second session on the
		// same environment must fail fast.
		second := f.session(func(string) error { return nil })
		_, secondErr = second.Edit()

		writeFile(t, path, "WINNER=first\n")
		return nil
	})

	result, err := first.Edit()
	if err != nil {
		t.Fatalf("First edit failed: %v", err)
	}
	if !result.Changed {
		t.Error("Expected first edit to commit")
	}
	if !errors.Is(secondErr, apperrors.ErrLockContention) {
		t.Errorf("Expected second session to fail with ErrLockContention, got: %v", secondErr)
	}
}

func TestEdit_CreatesNewEnvironment(t *testing.T) {
	f := newFixture(t, false)

	session := f.session(func(path string) error {
		writeFile(t, path, "FRESH=1\n")
		return nil
	})
	session.Environment = "staging"

	result, err := session.Edit()
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if !result.Changed {
		t.Fatal("Expected Changed=true")
	}

	blob, err := store.ReadFile(f.repo.BlobPath("staging"))
	if err != nil {
		t.Fatalf("Expected staging blob to exist: %v", err)
	}
	doc, err := store.Open(blob, f.priv)
	if err != nil {
		t.Fatalf("failed to open staging blob: %v", err)
	}
	if v, _ := doc.Get("FRESH"); v != "1" {
		t.Errorf("Expected FRESH=1, got: %q", v)
	}
}

func TestEdit_ResealUsesCurrentRegistry(t *testing.T) {
	// The fixture blob is sealed to alice and a second identity, but the
	// registry only lists alice. After an edit the second identity must lose
	// access to the new revision.
	f := newFixture(t, true)

	session := f.session(func(path string) error {
		writeFile(t, path, "EXISTING=2\n")
		return nil
	})

	if _, err := session.Edit(); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	blob, err := store.ReadFile(f.repo.BlobPath("default"))
	if err != nil {
		t.Fatalf("failed to read blob: %v", err)
	}
	if _, err := store.Open(blob, f.extra); !errors.Is(err, apperrors.ErrAccessDenied) {
		t.Errorf("Expected removed identity to get ErrAccessDenied, got: %v", err)
	}
	if _, err := store.Open(blob, f.priv); err != nil {
		t.Errorf("Expected registered identity to keep access, got: %v", err)
	}
}

func TestEdit_TemporaryPlaintextRemoved(t *testing.T) {
	f := newFixture(t, false)

	var plaintextPath string
	session := f.session(func(path string) error {
		plaintextPath = path
		writeFile(t, path, "EXISTING=2\n")
		return nil
	})

	if _, err := session.Edit(); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if plaintextPath == "" {
		t.Fatal("editor was never launched")
	}
	if _, err := os.Stat(plaintextPath); !os.IsNotExist(err) {
		t.Error("Expected temporary plaintext file to be removed")
	}
}
