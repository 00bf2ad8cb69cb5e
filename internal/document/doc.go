// Package document models the plaintext configuration document for one
// environment: an ordered set of KEY=VALUE pairs with unique keys.
//
// Documents are ephemeral. The store package is the only code that turns a
// document into something persisted, and it always encrypts first.
package document
