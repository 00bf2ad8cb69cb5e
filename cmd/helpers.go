package cmd

import (
	"crypto/rsa"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/envlock/envlock/internal/keyring"
	"github.com/envlock/envlock/internal/repo"
	"github.com/envlock/envlock/internal/ui"

	"github.com/briandowns/spinner"
	"github.com/spf13/pflag"
)

// resetFlagState clears the Changed marker on every root flag so the command
// tree can be executed more than once in a single process.
func resetFlagState() {
	RootCmd.PersistentFlags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
}

// openRepo locates the enclosing repository for the current invocation.
func openRepo() (*repo.Repository, error) {
	r, err := repo.Find()
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Repository root: %s", r.Root)
	return r, nil
}

// selectedEnvironment resolves the -e flag against the repository's
// configured default.
func selectedEnvironment(r *repo.Repository) string {
	if environment != "" {
		return environment
	}
	return r.DefaultEnvironment()
}

// resolveIdentityPath picks the private key path: --identity flag, then
// ENVLOCK_IDENTITY, then ~/.ssh/id_rsa.
func resolveIdentityPath() (string, error) {
	if identityPath != "" {
		return identityPath, nil
	}
	if fromEnv := os.Getenv("ENVLOCK_IDENTITY"); fromEnv != "" {
		return fromEnv, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ssh", "id_rsa"), nil
}

// loadIdentity loads the invoking user's private key.
func loadIdentity() (*rsa.PrivateKey, error) {
	path, err := resolveIdentityPath()
	if err != nil {
		return nil, err
	}
	Logger.Debugf("Using identity at %s", path)
	return keyring.LoadPrivateKey(path)
}

// startSpinner creates and starts a spinner with the given message when not
// in verbose or debug mode. Returns the spinner and a function that should be
// deferred to clean up.
//
// spinner.FinalMSG values do NOT need trailing newlines; the cleanup function
// calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if !verbose && !debug {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}
