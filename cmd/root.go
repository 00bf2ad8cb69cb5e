package cmd

import (
	"fmt"

	logger "github.com/envlock/envlock/internal/logging"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var (
	environment  string
	identityPath string
	verbose      bool
	debug        bool
	Logger       logger.Logger

	RootCmd = &cobra.Command{
		Use:   "envlock",
		Short: "Envlock - encrypted per-environment configuration for your repository",
		Long: `Envlock stores environment variables encrypted inside the repository,
sealed to the public keys listed in .envlock/developers, and injects the
decrypted values into commands you run.

Secrets are committed as ciphertext only. Every developer on the list can
decrypt with their own SSH key; nobody else can.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing envlock with verbose=%t, debug=%t", verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			banner := figure.NewFigure("envlock", "", true)
			banner.Print()
			fmt.Println()
			fmt.Println("Run 'envlock --help' to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&environment, "environment", "e", "", "environment to operate on (default from config.toml, else \"default\")")
	RootCmd.PersistentFlags().StringVar(&identityPath, "identity", "", "path to the SSH private key used for decryption")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(rotateCmd)
}
