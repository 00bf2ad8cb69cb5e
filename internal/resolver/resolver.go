package resolver

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/envlock/envlock/internal/document"
	apperrors "github.com/envlock/envlock/internal/errors"
	"github.com/envlock/envlock/internal/repo"
	"github.com/envlock/envlock/internal/store"
)

// Resolve decrypts the named environment and merges it over the base
// ("default") environment when one exists and the target is not itself the
// base. The result is the final key/value mapping handed to the exporter or
// a spawned process; it is never persisted.
func Resolve(r *repo.Repository, env string, priv *rsa.PrivateKey) (*document.Document, error) {
	if err := repo.ValidateEnvironmentName(env); err != nil {
		return nil, err
	}

	target, err := open(r, env, priv)
	if err != nil {
		return nil, err
	}

	if env == repo.BaseEnvironment || !r.HasEnvironment(repo.BaseEnvironment) {
		return target, nil
	}

	base, err := open(r, repo.BaseEnvironment, priv)
	if err != nil {
		return nil, err
	}
	return document.Merge(base, target), nil
}

func open(r *repo.Repository, env string, priv *rsa.PrivateKey) (*document.Document, error) {
	blob, err := store.ReadFile(r.BlobPath(env))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("environment %s has no encrypted store: %w", env, apperrors.ErrUnknownEnvironment)
	}
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", env, err)
	}

	doc, err := store.Open(blob, priv)
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", env, err)
	}
	return doc, nil
}
