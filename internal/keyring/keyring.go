package keyring

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/envlock/envlock/internal/errors"

	"golang.org/x/crypto/ssh"
)

// PublicKey is one authorized identity from the developer registry.
type PublicKey struct {
	// RSA is the recipient key used to wrap symmetric content keys.
	RSA *rsa.PublicKey

	// Fingerprint is the SHA256 fingerprint of the key in OpenSSH form
	// ("SHA256:..."), used to locate recipient entries in a blob.
	Fingerprint string

	// Comment is the trailing comment from the authorized_keys line, if any.
	Comment string
}

// Registry is the ordered set of public identities authorized for a
// repository. It is the source of truth for sealing; decryption is gated
// cryptographically, not by the registry.
type Registry struct {
	keys []PublicKey
}

// Load parses a developer registry file. Any malformed, unsupported, or
// duplicate entry fails the whole load; no partial registry is returned.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v: %w", path, err, apperrors.ErrRegistry)
	}
	return Parse(data)
}

// Parse parses registry content. Blank lines and '#' comments are skipped.
func Parse(data []byte) (*Registry, error) {
	registry := &Registry{}
	seen := make(map[string]bool)

	for n, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		pub, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(trimmed))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid public key: %w", n+1, apperrors.ErrRegistry)
		}

		rsaPub, err := rsaKey(pub)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", n+1, err, apperrors.ErrRegistry)
		}

		fingerprint := ssh.FingerprintSHA256(pub)
		if seen[fingerprint] {
			return nil, fmt.Errorf("line %d: duplicate key %s: %w", n+1, fingerprint, apperrors.ErrRegistry)
		}
		seen[fingerprint] = true

		registry.keys = append(registry.keys, PublicKey{
			RSA:         rsaPub,
			Fingerprint: fingerprint,
			Comment:     comment,
		})
	}

	return registry, nil
}

// Keys returns the authorized keys in registry order.
func (r *Registry) Keys() []PublicKey {
	return r.keys
}

// Len returns the number of authorized keys.
func (r *Registry) Len() int {
	return len(r.keys)
}

// Contains reports whether a key with the given fingerprint is authorized.
func (r *Registry) Contains(fingerprint string) bool {
	for _, k := range r.keys {
		if k.Fingerprint == fingerprint {
			return true
		}
	}
	return false
}

// LoadPrivateKey loads an RSA private key from disk. Both PEM (PKCS#1) and
// OpenSSH formats are accepted. Passphrase-protected keys are rejected with a
// hint rather than prompting.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key at %s: %w", path, err)
	}

	parsed, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("private key at %s is passphrase-protected; decrypt it into an agent-free copy first", path)
		}
		return nil, fmt.Errorf("failed to parse private key at %s: %w", path, err)
	}

	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key at %s is not an RSA key", path)
	}
	return priv, nil
}

// Fingerprint returns the SHA256 fingerprint of the public half of priv, in
// the same form the registry and blob recipient entries use.
func Fingerprint(priv *rsa.PrivateKey) (string, error) {
	pub, err := ssh.NewPublicKey(&priv.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to derive public key: %w", err)
	}
	return ssh.FingerprintSHA256(pub), nil
}

// MarshalPublicKey renders an RSA public key as a single authorized_keys
// line, suitable for appending to the registry file.
func MarshalPublicKey(pub *rsa.PublicKey, comment string) ([]byte, error) {
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to convert public key: %w", err)
	}
	line := ssh.MarshalAuthorizedKey(sshPub)
	if comment != "" {
		line = append(line[:len(line)-1], []byte(" "+comment+"\n")...)
	}
	return line, nil
}

func rsaKey(pub ssh.PublicKey) (*rsa.PublicKey, error) {
	crypto, ok := pub.(ssh.CryptoPublicKey)
	if !ok {
		return nil, fmt.Errorf("unsupported key type %s", pub.Type())
	}
	rsaPub, ok := crypto.CryptoPublicKey().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unsupported key type %s (only ssh-rsa keys can act as recipients)", pub.Type())
	}
	return rsaPub, nil
}
