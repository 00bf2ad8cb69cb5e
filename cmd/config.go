package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit and export encrypted environment configuration",
	Long:  `Provides editing and exporting of the encrypted per-environment variables.`,
}

func init() {
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configExportCmd)
}
