package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/envlock/envlock/internal/audit"
	"github.com/envlock/envlock/internal/document"
	"github.com/envlock/envlock/internal/keyring"
	"github.com/envlock/envlock/internal/repo"
	"github.com/envlock/envlock/internal/store"
	"github.com/envlock/envlock/internal/ui"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize envlock in the current repository",
	Long: `Creates the .envlock directory, seeds the developer registry with your
SSH public key, and creates an empty encrypted default environment.

The registry (.envlock/developers) and the encrypted environments
(.envlock/config/*.enc) are meant to be committed; your private key never
leaves ~/.ssh.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Initializing envlock...")
		defer cleanup()

		wd, err := os.Getwd()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to get working directory: %v", err)
		}

		envlockDir := filepath.Join(wd, repo.DirName)
		if _, err := os.Stat(envlockDir); err == nil {
			spinner.FinalMSG = ui.Warning.Sprint("⚠") + " Envlock is already initialized here\n" +
				ui.Info.Sprint("→") + " Edit an environment with " + ui.Code.Sprint("envlock config edit")
			return nil
		}

		pubLine, err := localPublicKeyLine()
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Could not find your SSH public key\n" +
				ui.Info.Sprint("→") + " " + err.Error() + "\n" +
				ui.Info.Sprint("→") + " Generate one with " + ui.Code.Sprint("ssh-keygen -t rsa -b 4096")
			return nil
		}

		if err := os.MkdirAll(filepath.Join(envlockDir, "config"), 0755); err != nil {
			return Logger.ErrorfAndReturn("failed to create %s: %v", envlockDir, err)
		}

		r, err := repo.Open(wd)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to open repository: %v", err)
		}

		if err := os.WriteFile(r.RegistryPath(), pubLine, 0644); err != nil { // #nosec G306 -- public keys only.
			return Logger.ErrorfAndReturn("failed to write developer registry: %v", err)
		}

		configToml := "# Envlock repository configuration.\n" +
			"# default_environment = \"dev\"\n\n" +
			"[commands]\n" +
			"# start = \"npm run dev\"\n"
		configPath := filepath.Join(envlockDir, "config.toml")
		if err := os.WriteFile(configPath, []byte(configToml), 0644); err != nil { // #nosec G306
			return Logger.ErrorfAndReturn("failed to write config.toml: %v", err)
		}

		// Seal an empty default environment so run/export work immediately.
		registry, err := keyring.Load(r.RegistryPath())
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load developer registry: %v", err)
		}
		blob, err := store.Seal(document.New(), registry.Keys())
		if err != nil {
			return Logger.ErrorfAndReturn("failed to seal default environment: %v", err)
		}
		if err := store.WriteFile(r.BlobPath(repo.BaseEnvironment), blob); err != nil {
			return Logger.ErrorfAndReturn("failed to write default environment: %v", err)
		}

		audit.Log(r.AuditPath(), audit.Entry{
			Operation:  "init",
			Recipients: registry.Len(),
		})

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Initialized envlock\n\n" +
			"Created:\n" +
			"  " + ui.Path.Sprint(".envlock/developers") + "      " + ui.Muted.Sprint("your public key, commit this") + "\n" +
			"  " + ui.Path.Sprint(".envlock/config.toml") + "     " + ui.Muted.Sprint("repository configuration") + "\n" +
			"  " + ui.Path.Sprint(".envlock/config/default.enc") + " " + ui.Muted.Sprint("empty encrypted environment") + "\n\n" +
			ui.Info.Sprint("→") + " Add variables with " + ui.Code.Sprint("envlock config edit")
		return nil
	},
}

// localPublicKeyLine reads the public half of the identity the commands will
// decrypt with, as a registry line.
func localPublicKeyLine() ([]byte, error) {
	path, err := resolveIdentityPath()
	if err != nil {
		return nil, err
	}
	pubPath := path + ".pub"

	data, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, fmt.Errorf("no public key at %s", pubPath)
	}

	line := strings.TrimSpace(string(data))
	if line == "" {
		return nil, fmt.Errorf("public key at %s is empty", pubPath)
	}
	return []byte(line + "\n"), nil
}
