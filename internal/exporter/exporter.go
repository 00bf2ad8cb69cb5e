package exporter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/envlock/envlock/internal/document"
	apperrors "github.com/envlock/envlock/internal/errors"
)

// Format names a supported export rendering.
type Format string

const (
	// Raw renders shell-sourceable KEY=VALUE lines with values escaped.
	Raw Format = "raw"

	// JSON renders a single flat object with string keys and values.
	JSON Format = "json"

	// Docker renders the KEY=VALUE subset accepted by container env-file
	// consumers: no quoting, no escaping.
	Docker Format = "docker"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case Raw, JSON, Docker:
		return Format(name), nil
	}
	return "", fmt.Errorf("format %q: %w", name, apperrors.ErrUnsupportedFormat)
}

// Render produces the exported byte sequence for a resolved environment.
// Writing the bytes anywhere is the caller's responsibility.
func Render(doc *document.Document, format Format) ([]byte, error) {
	switch format {
	case Raw:
		return renderRaw(doc), nil
	case JSON:
		return renderJSON(doc)
	case Docker:
		return renderDocker(doc), nil
	}
	return nil, fmt.Errorf("format %q: %w", format, apperrors.ErrUnsupportedFormat)
}

func renderRaw(doc *document.Document) []byte {
	var b strings.Builder
	for _, p := range doc.Pairs() {
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(shellQuote(p.Value))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func renderJSON(doc *document.Document) ([]byte, error) {
	object := make(map[string]string, doc.Len())
	for _, p := range doc.Pairs() {
		object[p.Key] = p.Value
	}
	data, err := json.Marshal(object)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON export: %w", err)
	}
	return append(data, '\n'), nil
}

func renderDocker(doc *document.Document) []byte {
	var b strings.Builder
	for _, p := range doc.Pairs() {
		b.WriteString(p.Key)
		b.WriteByte('=')
		// Container env files cannot carry newlines in values; spaces keep
		// the variable usable when the consumer does not need them.
		b.WriteString(strings.ReplaceAll(p.Value, "\n", " "))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// shellQuote returns value quoted so the raw export can be sourced by a
// POSIX shell. Values made only of safe characters pass through bare.
func shellQuote(value string) string {
	if value != "" && strings.IndexFunc(value, unsafeShellRune) < 0 {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func unsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	switch r {
	case '_', '-', '.', '/', ':', ',', '@', '%', '+', '=':
		return false
	}
	return true
}
