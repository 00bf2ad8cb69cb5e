package runner

import (
	"errors"
	"testing"

	"github.com/envlock/envlock/internal/document"
	apperrors "github.com/envlock/envlock/internal/errors"
)

func resolvedDoc(pairs ...[2]string) *document.Document {
	doc := document.New()
	for _, p := range pairs {
		doc.Set(p[0], p[1])
	}
	return doc
}

func TestOverlay_ResolvedWins(t *testing.T) {
	environ := []string{"PATH=/usr/bin", "HOME=/home/alice", "FOO=ambient"}
	resolved := resolvedDoc([2]string{"FOO", "resolved"}, [2]string{"BAR", "new"})

	out := Overlay(environ, resolved)

	want := []string{"PATH=/usr/bin", "HOME=/home/alice", "FOO=resolved", "BAR=new"}
	if len(out) != len(want) {
		t.Fatalf("Expected %d entries, got: %d (%v)", len(want), len(out), out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Entry %d: expected %q, got %q", i, want[i], out[i])
		}
	}
}

func TestOverlay_EmptyResolved(t *testing.T) {
	environ := []string{"PATH=/usr/bin"}
	out := Overlay(environ, document.New())
	if len(out) != 1 || out[0] != "PATH=/usr/bin" {
		t.Errorf("Expected ambient environment unchanged, got: %v", out)
	}
}

func TestRun_ExitCodePropagated(t *testing.T) {
	code, err := Run(document.New(), "sh", []string{"-c", "exit 7"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != 7 {
		t.Errorf("Expected exit code 7, got: %d", code)
	}
}

func TestRun_Success(t *testing.T) {
	code, err := Run(document.New(), "true", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != 0 {
		t.Errorf("Expected exit code 0, got: %d", code)
	}
}

func TestRun_EnvironmentInjected(t *testing.T) {
	resolved := resolvedDoc([2]string{"ENVLOCK_TEST_VALUE", "injected"})

	code, err := Run(resolved, "sh", []string{"-c", `test "$ENVLOCK_TEST_VALUE" = injected`})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != 0 {
		t.Error("Expected child to see the injected variable")
	}
}

func TestRun_SpawnError(t *testing.T) {
	_, err := Run(document.New(), "definitely-not-a-command-envlock", nil)
	if !errors.Is(err, apperrors.ErrSpawn) {
		t.Errorf("Expected ErrSpawn, got: %v", err)
	}
}
