package document

import (
	"fmt"
	"strings"

	apperrors "github.com/envlock/envlock/internal/errors"
)

// Pair is a single variable in a document.
type Pair struct {
	Key   string
	Value string
}

// Document is the plaintext form of one environment: an ordered mapping of
// variable name to string value. It exists only in memory or in a scoped
// temporary file during editing, never on durable storage in the repository.
type Document struct {
	pairs []Pair
	index map[string]int
}

// New returns an empty document.
func New() *Document {
	return &Document{index: make(map[string]int)}
}

// Set appends the pair, or replaces the value in place if the key exists.
func (d *Document) Set(key, value string) {
	if i, ok := d.index[key]; ok {
		d.pairs[i].Value = value
		return
	}
	d.index[key] = len(d.pairs)
	d.pairs = append(d.pairs, Pair{Key: key, Value: value})
}

// Get returns the value for key and whether it is present.
func (d *Document) Get(key string) (string, bool) {
	i, ok := d.index[key]
	if !ok {
		return "", false
	}
	return d.pairs[i].Value, true
}

// Pairs returns the variables in insertion order. The slice is shared; do not
// mutate it.
func (d *Document) Pairs() []Pair {
	return d.pairs
}

// Len returns the number of variables.
func (d *Document) Len() int {
	return len(d.pairs)
}

// Equal reports whether two documents hold the same pairs in the same order.
func (d *Document) Equal(other *Document) bool {
	if len(d.pairs) != len(other.pairs) {
		return false
	}
	for i, p := range d.pairs {
		if other.pairs[i] != p {
			return false
		}
	}
	return true
}

// Parse reads KEY=VALUE lines into a document. Blank lines and lines starting
// with '#' are skipped. Duplicate keys, empty keys, invalid variable names,
// and lines without '=' are rejected. Error messages carry line numbers but
// never values.
func Parse(data []byte) (*Document, error) {
	doc := New()

	for n, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("line %d: missing '=': %w", n+1, apperrors.ErrValidation)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("line %d: empty variable name: %w", n+1, apperrors.ErrValidation)
		}
		if !validName(key) {
			return nil, fmt.Errorf("line %d: invalid variable name %q: %w", n+1, key, apperrors.ErrValidation)
		}
		if _, ok := doc.Get(key); ok {
			return nil, fmt.Errorf("line %d: duplicate variable %q: %w", n+1, key, apperrors.ErrValidation)
		}

		doc.Set(key, value)
	}

	return doc, nil
}

// Serialize renders the document as KEY=VALUE lines, one per variable, in
// insertion order. Parse(Serialize(d)) round-trips.
func (d *Document) Serialize() []byte {
	var b strings.Builder
	for _, p := range d.pairs {
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Merge combines a base document with a target document using override
// semantics: the result holds the union of keys, with the target's value
// winning on collision. Iteration order is base keys first, then keys only
// present in the target.
func Merge(base, target *Document) *Document {
	merged := New()
	for _, p := range base.pairs {
		merged.Set(p.Key, p.Value)
	}
	for _, p := range target.pairs {
		merged.Set(p.Key, p.Value)
	}
	return merged
}

// validName reports whether key is a portable environment variable name:
// letters, digits and underscores, not starting with a digit.
func validName(key string) bool {
	for i, r := range key {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
