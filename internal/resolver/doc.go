// Package resolver turns an environment name into its final key/value
// mapping: the target document merged over the base document with override
// semantics (target wins on key collision, base keys keep their position).
package resolver
