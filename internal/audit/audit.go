package audit

import (
	"encoding/json"
	"os"
	"os/user"
	"time"
)

// Entry represents a single audit log entry. Entries record who changed
// which environment and how many recipients the result was sealed to; they
// never contain variable names or values.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // OS username performing the action.
	Operation string `json:"op"`   // Operation name (edit, rotate, init).

	// Optional fields depending on operation.
	Environment  string   `json:"environment,omitempty"`  // For edit.
	Environments []string `json:"environments,omitempty"` // For rotate.
	Recipients   int      `json:"recipients,omitempty"`   // Keys sealed to.
	Fingerprint  string   `json:"fingerprint,omitempty"`  // Acting identity.
}

// Log appends an entry to the audit log at path.
// If logging fails it returns silently; operations should not fail just
// because audit logging failed.
func Log(path string, entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.User == "" {
		if u, err := user.Current(); err == nil {
			entry.User = u.Username
		}
	}

	// #nosec G306 -- the audit log holds no secrets and should be readable
	// by team members.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
