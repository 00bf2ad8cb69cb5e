// Package keyring loads and validates the developer registry: the flat,
// version-controlled list of OpenSSH public keys authorized to read a
// repository's encrypted environments.
//
// The registry gates encryption only. Every seal operation recomputes its
// recipient set from the current registry, so a removed key loses access to
// all future revisions of a blob. Decryption is gated by possession of a
// matching private key, never by registry membership.
//
// Private keys are loaded from the user's local keystore (~/.ssh) and are
// never persisted inside the repository.
package keyring
