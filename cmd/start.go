package cmd

import (
	apperrors "github.com/envlock/envlock/internal/errors"
	"github.com/envlock/envlock/internal/resolver"
	"github.com/envlock/envlock/internal/runner"
	"github.com/envlock/envlock/internal/ui"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the repository's configured start command",
	Long: `Runs the command configured under [commands].start in
.envlock/config.toml, with the selected environment's secrets injected,
exactly as 'envlock run' would.

Example config.toml:

  [commands]
  start = "npm run dev"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}

		startCommand := r.Config.Commands.Start
		if startCommand == "" {
			return Logger.ErrorfAndReturn("no start command configured; add %s to %s",
				ui.Code.Sprint("[commands] start = \"...\""), ui.Path.Sprint(".envlock/config.toml"))
		}

		priv, err := loadIdentity()
		if err != nil {
			return err
		}

		env := selectedEnvironment(r)
		resolved, err := resolver.Resolve(r, env, priv)
		if err != nil {
			return err
		}

		// The configured command is a shell line, not an argv.
		code, err := runner.Run(resolved, "sh", []string{"-c", startCommand})
		if err != nil {
			return err
		}
		if code != 0 {
			return &apperrors.ChildExitError{Code: code}
		}
		return nil
	},
}
