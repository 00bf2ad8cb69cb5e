// Package store owns the encrypted on-disk format for environment documents.
//
// A blob is a JSON envelope holding authenticated secretbox ciphertext and a
// list of recipient entries. The document is encrypted once with a random
// 32-byte content key; that key is then RSA-wrapped separately for every
// authorized public key, so each recipient can open the blob independently
// and adding or removing a recipient is a re-seal, not a re-key of anything
// outside the blob.
//
// Tampering with the ciphertext is detected by secretbox's authenticator and
// surfaces as CorruptStore. A private key that matches no recipient entry
// surfaces as AccessDenied.
package store
