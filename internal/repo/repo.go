package repo

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/envlock/envlock/internal/errors"

	"github.com/BurntSushi/toml"
)

const (
	// DirName is the repository directory that marks an Envlock root and
	// holds all persisted artifacts.
	DirName = ".envlock"

	// BaseEnvironment is the reserved environment every other environment is
	// merged over.
	BaseEnvironment = "default"

	registryFile = "developers"
	configFile   = "config.toml"
	configDir    = "config"
	auditFile    = "audit.jsonl"
	blobSuffix   = ".enc"
)

// Commands holds repository-configured commands.
type Commands struct {
	// Start is the command `envlock start` runs, through `sh -c`.
	Start string `toml:"start"`

	// Shell is the command used to spawn an interactive shell, if configured.
	Shell string `toml:"shell"`
}

// Config is the repository configuration from .envlock/config.toml.
type Config struct {
	// DefaultEnvironment overrides the environment used when -e is omitted.
	// When empty, BaseEnvironment is used.
	DefaultEnvironment string `toml:"default_environment"`

	Commands Commands `toml:"commands"`
}

// Repository is one Envlock-managed repository, loaded fresh per invocation.
type Repository struct {
	Root   string
	Config Config
}

// Find locates the enclosing repository by walking up from the working
// directory looking for a .envlock directory, falling back to the git
// toplevel when none is found.
func Find() (*Repository, error) {
	root, err := findRoot()
	if err != nil {
		return nil, err
	}
	if root == "" {
		return nil, fmt.Errorf("not inside an envlock repository (missing %s directory)", DirName)
	}
	return Open(root)
}

// Open loads the repository rooted at root.
func Open(root string) (*Repository, error) {
	r := &Repository{Root: root}

	configPath := filepath.Join(root, DirName, configFile)
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
	}
	if err := toml.Unmarshal(data, &r.Config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return r, nil
}

func findRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for {
		info, err := os.Stat(filepath.Join(currentDir, DirName))
		if err == nil && info.IsDir() {
			return currentDir, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("error checking for %s directory at %s: %w", DirName, currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached the filesystem root; ask git before giving up.
			return gitToplevel()
		}
		currentDir = parentDir
	}
}

// gitToplevel returns the git repository root, or "" when not in a git
// repository.
func gitToplevel() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}

// DefaultEnvironment returns the environment used when -e is omitted.
func (r *Repository) DefaultEnvironment() string {
	if r.Config.DefaultEnvironment != "" {
		return r.Config.DefaultEnvironment
	}
	return BaseEnvironment
}

// RegistryPath returns the path of the developer registry file.
func (r *Repository) RegistryPath() string {
	return filepath.Join(r.Root, DirName, registryFile)
}

// ConfigDir returns the directory holding encrypted environment blobs.
func (r *Repository) ConfigDir() string {
	return filepath.Join(r.Root, DirName, configDir)
}

// BlobPath returns the path of an environment's encrypted blob.
func (r *Repository) BlobPath(env string) string {
	return filepath.Join(r.ConfigDir(), env+blobSuffix)
}

// LockPath returns the path of an environment's advisory editor lock.
func (r *Repository) LockPath(env string) string {
	return r.BlobPath(env) + ".lock"
}

// AuditPath returns the path of the audit log.
func (r *Repository) AuditPath() string {
	return filepath.Join(r.Root, DirName, auditFile)
}

// HasEnvironment reports whether a blob exists for env.
func (r *Repository) HasEnvironment(env string) bool {
	_, err := os.Stat(r.BlobPath(env))
	return err == nil
}

// Environments lists the environment names with a persisted blob, sorted.
func (r *Repository) Environments() ([]string, error) {
	entries, err := os.ReadDir(r.ConfigDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list environments: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), blobSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), blobSuffix))
	}
	sort.Strings(names)
	return names, nil
}

// ValidateEnvironmentName rejects names that would escape the config
// directory or produce surprising blob filenames.
func ValidateEnvironmentName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name is empty: %w", apperrors.ErrUnknownEnvironment)
	}
	for _, r := range name {
		switch {
		case r == '-' || r == '_' || r == '.':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return fmt.Errorf("environment name %q contains invalid character %q: %w", name, r, apperrors.ErrUnknownEnvironment)
		}
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("environment name %q must not start with a dot: %w", name, apperrors.ErrUnknownEnvironment)
	}
	return nil
}
