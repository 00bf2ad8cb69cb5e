package store

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"

	"github.com/envlock/envlock/internal/document"
	apperrors "github.com/envlock/envlock/internal/errors"
	"github.com/envlock/envlock/internal/keyring"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// Version tags the blob envelope format.
	Version = 1

	keySize   = 32
	nonceSize = 24
)

// Recipient is one sealed copy of the content key: the key fingerprint it was
// wrapped for, plus the RSA-wrapped symmetric key.
type Recipient struct {
	Fingerprint string `json:"fingerprint"`
	Key         []byte `json:"key"`
}

// Blob is the persisted form of an environment document: authenticated
// ciphertext plus one independently decryptable recipient entry per
// authorized key.
type Blob struct {
	Version    int         `json:"version"`
	Recipients []Recipient `json:"recipients"`
	Nonce      []byte      `json:"nonce"`
	Ciphertext []byte      `json:"ciphertext"`
}

// Seal encrypts a document for the given recipients. A fresh 32-byte content
// key encrypts the serialized document with secretbox, and the content key is
// wrapped once per recipient with RSA so each entry is independently
// decryptable.
func Seal(doc *document.Document, recipients []keyring.PublicKey) (*Blob, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients to seal to: %w", apperrors.ErrEncoding)
	}
	for _, p := range doc.Pairs() {
		if p.Key == "" {
			return nil, fmt.Errorf("document has an empty variable name: %w", apperrors.ErrEncoding)
		}
	}

	var key [keySize]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return nil, fmt.Errorf("failed to generate content key: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	blob := &Blob{
		Version:    Version,
		Nonce:      nonce[:],
		Ciphertext: secretbox.Seal(nil, doc.Serialize(), &nonce, &key),
	}

	for _, recipient := range recipients {
		wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, recipient.RSA, key[:])
		if err != nil {
			return nil, fmt.Errorf("failed to wrap content key for %s: %w", recipient.Fingerprint, err)
		}
		blob.Recipients = append(blob.Recipients, Recipient{
			Fingerprint: recipient.Fingerprint,
			Key:         wrapped,
		})
	}

	return blob, nil
}

// Open decrypts a blob with the invoking identity's private key. It fails
// with AccessDenied when no recipient entry unwraps with priv, and with
// CorruptStore when ciphertext authentication fails.
func Open(blob *Blob, priv *rsa.PrivateKey) (*document.Document, error) {
	if blob.Version != Version {
		return nil, fmt.Errorf("unsupported blob version %d: %w", blob.Version, apperrors.ErrCorruptStore)
	}
	if len(blob.Nonce) != nonceSize {
		return nil, fmt.Errorf("invalid nonce length %d: %w", len(blob.Nonce), apperrors.ErrCorruptStore)
	}

	key, err := unwrapContentKey(blob, priv)
	if err != nil {
		return nil, err
	}

	var nonce [nonceSize]byte
	copy(nonce[:], blob.Nonce)

	plaintext, ok := secretbox.Open(nil, blob.Ciphertext, &nonce, key)
	if !ok {
		return nil, fmt.Errorf("ciphertext authentication failed: %w", apperrors.ErrCorruptStore)
	}

	doc, err := document.Parse(plaintext)
	if err != nil {
		// A sealed document was valid when written, so an unparseable one
		// means the store itself is damaged.
		return nil, fmt.Errorf("decrypted content is not a valid document: %w", apperrors.ErrCorruptStore)
	}
	return doc, nil
}

// unwrapContentKey tries the recipient entries matching the identity's
// fingerprint first, then every remaining entry, so a blob with a stale
// fingerprint label is still openable by a valid key.
func unwrapContentKey(blob *Blob, priv *rsa.PrivateKey) (*[keySize]byte, error) {
	fingerprint, err := keyring.Fingerprint(priv)
	if err != nil {
		return nil, err
	}

	ordered := make([]Recipient, 0, len(blob.Recipients))
	for _, r := range blob.Recipients {
		if r.Fingerprint == fingerprint {
			ordered = append(ordered, r)
		}
	}
	for _, r := range blob.Recipients {
		if r.Fingerprint != fingerprint {
			ordered = append(ordered, r)
		}
	}

	for _, r := range ordered {
		key, err := rsa.DecryptPKCS1v15(nil, priv, r.Key)
		if err != nil || len(key) != keySize {
			continue
		}
		var out [keySize]byte
		copy(out[:], key)
		return &out, nil
	}

	return nil, fmt.Errorf("no recipient entry matches key %s: %w", fingerprint, apperrors.ErrAccessDenied)
}
