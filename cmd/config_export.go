package cmd

import (
	"fmt"
	"os"

	"github.com/envlock/envlock/internal/exporter"
	"github.com/envlock/envlock/internal/resolver"

	"github.com/spf13/cobra"
)

var (
	exportFormat     string
	exportOutputPath string
)

var configExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an environment's resolved variables",
	Long: `Decrypts the selected environment, merges it over the default
environment, and writes the result to stdout (or a file with -o).

Formats:
  raw     shell-sourceable KEY=VALUE lines, values escaped (default)
  json    a single flat JSON object
  docker  KEY=VALUE lines for container --env-file consumers

Examples:
  envlock config export -e prd --format json
  envlock config export --format docker -o prd.env`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := exporter.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		r, err := openRepo()
		if err != nil {
			return err
		}
		env := selectedEnvironment(r)

		priv, err := loadIdentity()
		if err != nil {
			return err
		}

		resolved, err := resolver.Resolve(r, env, priv)
		if err != nil {
			return err
		}

		rendered, err := exporter.Render(resolved, format)
		if err != nil {
			return err
		}

		if exportOutputPath == "" {
			_, err = os.Stdout.Write(rendered)
			return err
		}
		// The rendered output is plaintext secrets; keep it private.
		if err := os.WriteFile(exportOutputPath, rendered, 0600); err != nil {
			return fmt.Errorf("failed to write export to %s: %w", exportOutputPath, err)
		}
		return nil
	},
}

func init() {
	configExportCmd.Flags().StringVar(&exportFormat, "format", string(exporter.Raw), "output format: raw, json, or docker")
	configExportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "write to a file instead of stdout")
}
