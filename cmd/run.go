package cmd

import (
	apperrors "github.com/envlock/envlock/internal/errors"
	"github.com/envlock/envlock/internal/resolver"
	"github.com/envlock/envlock/internal/runner"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run a command with the environment's secrets injected",
	Long: `Decrypts the selected environment, merges it over the default environment,
and runs the given command with the resulting variables added to its
environment. The command's exit code becomes envlock's exit code.

Examples:
  # Run against the default environment
  envlock run ./server

  # Run against production
  envlock run -e prd ./server --port 8080`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		Logger.Infof("Resolved %d variables for environment %s", resolved.Len(), env)

		code, err := runner.Run(resolved, args[0], args[1:])
		if err != nil {
			return err
		}
		if code != 0 {
			return &apperrors.ChildExitError{Code: code}
		}
		return nil
	},
}

func init() {
	// Flags after the command name belong to the command, not to envlock.
	runCmd.Flags().SetInterspersed(false)
}
