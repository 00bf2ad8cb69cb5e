package cmd

import (
	"fmt"
	"strings"

	"github.com/envlock/envlock/internal/audit"
	"github.com/envlock/envlock/internal/keyring"
	"github.com/envlock/envlock/internal/store"
	"github.com/envlock/envlock/internal/ui"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

var rotateDryRun bool

var rotateCmd = &cobra.Command{
	Use:   "rotate [pattern]",
	Short: "Re-seal environments against the current developer registry",
	Long: `Decrypts every environment (or those matching a glob pattern) and seals
it again with a fresh content key against the current developer registry.

Run this after removing a key from .envlock/developers: future revisions of
every rotated environment are then unreadable by the removed key. Prior
revisions in version control history remain readable by whoever could open
them at that revision.

Each rotation is recorded in the audit log.

Examples:
  # Rotate everything
  envlock rotate

  # Rotate only production-like environments
  envlock rotate 'prd*'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Rotating environments...")
		defer cleanup()

		r, err := openRepo()
		if err != nil {
			return err
		}

		registry, err := keyring.Load(r.RegistryPath())
		if err != nil {
			return err
		}
		if registry.Len() == 0 {
			return Logger.ErrorfAndReturn("developer registry at %s is empty; nothing can be sealed", r.RegistryPath())
		}

		priv, err := loadIdentity()
		if err != nil {
			return err
		}

		environments, err := r.Environments()
		if err != nil {
			return err
		}

		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}

		var rotated []string
		for _, env := range environments {
			match, err := doublestar.Match(pattern, env)
			if err != nil {
				return Logger.ErrorfAndReturn("invalid pattern %q: %v", pattern, err)
			}
			if !match {
				Logger.Debugf("Skipping environment %s (no match)", env)
				continue
			}

			blob, err := store.ReadFile(r.BlobPath(env))
			if err != nil {
				return fmt.Errorf("environment %s: %w", env, err)
			}
			doc, err := store.Open(blob, priv)
			if err != nil {
				return fmt.Errorf("environment %s: %w", env, err)
			}

			if rotateDryRun {
				Logger.Infof("Would rotate %s (%d variables, %d recipients)", env, doc.Len(), registry.Len())
				rotated = append(rotated, env)
				continue
			}

			resealed, err := store.Seal(doc, registry.Keys())
			if err != nil {
				return fmt.Errorf("environment %s: %w", env, err)
			}
			if err := store.WriteFile(r.BlobPath(env), resealed); err != nil {
				return fmt.Errorf("environment %s: %w", env, err)
			}
			Logger.Infof("Rotated %s", env)
			rotated = append(rotated, env)
		}

		if len(rotated) == 0 {
			spinner.FinalMSG = ui.Warning.Sprint("⚠") + " No environments matched " + ui.Highlight.Sprint(pattern)
			return nil
		}

		if rotateDryRun {
			spinner.FinalMSG = ui.Info.Sprint("→") + " Would rotate: " + strings.Join(rotated, ", ")
			return nil
		}

		fingerprint, _ := keyring.Fingerprint(priv)
		audit.Log(r.AuditPath(), audit.Entry{
			Operation:    "rotate",
			Environments: rotated,
			Recipients:   registry.Len(),
			Fingerprint:  fingerprint,
		})

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Rotated " + fmt.Sprintf("%d", len(rotated)) +
			" environment(s) to " + fmt.Sprintf("%d", registry.Len()) + " key(s): " + strings.Join(rotated, ", ")
		return nil
	},
}

func init() {
	rotateCmd.Flags().BoolVar(&rotateDryRun, "dry-run", false, "show what would be rotated without writing")
}
