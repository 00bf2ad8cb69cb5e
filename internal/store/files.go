package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/envlock/envlock/internal/errors"
)

// Encode renders a blob as indented JSON with a trailing newline. The layout
// is stable so blobs diff cleanly under version control.
func Encode(blob *Blob) ([]byte, error) {
	data, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode blob: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses blob bytes. Any envelope damage surfaces as CorruptStore.
func Decode(data []byte) (*Blob, error) {
	var blob Blob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("invalid blob envelope: %w", apperrors.ErrCorruptStore)
	}
	return &blob, nil
}

// ReadFile loads a blob from disk.
func ReadFile(path string) (*Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// WriteFile persists a blob atomically: the encoded blob is written to a
// temporary file in the same directory and renamed over the destination, so a
// reader always observes either the old complete blob or the new one. The
// rename is the only moment the store changes.
func WriteFile(path string, blob *Blob) error {
	data, err := Encode(blob)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary blob file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temporary blob file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to sync temporary blob file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temporary blob file: %w", err)
	}

	// Blobs are world-readable ciphertext; match normal repository files.
	if err := os.Chmod(tmp.Name(), 0644); err != nil { // #nosec G302
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to set blob permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to commit blob: %w", err)
	}
	return nil
}
