package cmd

import (
	"fmt"
	"os"

	"github.com/envlock/envlock/internal/editor"
	"github.com/envlock/envlock/internal/repo"
	"github.com/envlock/envlock/internal/ui"

	"github.com/spf13/cobra"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit an environment's variables in your editor",
	Long: `Decrypts the selected environment into a temporary file, opens it in
$EDITOR (vi if unset), validates the result as KEY=VALUE lines, re-encrypts
it against the current developer registry, and commits it atomically.

The plaintext never touches the repository: it lives in a mode-0600
temporary file that is removed on every exit path, including Ctrl-C.
If the content is left unchanged the store is not rewritten, keeping
version control history quiet.

Editing an environment that does not exist yet creates it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRepo()
		if err != nil {
			return err
		}
		env := selectedEnvironment(r)
		if err := repo.ValidateEnvironmentName(env); err != nil {
			return err
		}

		priv, err := loadIdentity()
		if err != nil {
			return err
		}

		session := &editor.Session{
			Repo:        r,
			Environment: env,
			PrivateKey:  priv,
			Log:         Logger,
			Interactive: true,
			ReportInvalid: func(err error) {
				fmt.Fprintln(os.Stderr, ui.Warning.Sprint("⚠")+" "+err.Error())
				fmt.Fprintln(os.Stderr, ui.Info.Sprint("→")+" Reopening editor so you can fix it (leave unchanged to abort)")
			},
		}

		result, err := session.Edit()
		if err != nil {
			return err
		}

		if !result.Changed {
			fmt.Println(ui.Muted.Sprint("no changes") + " Environment " + ui.Highlight.Sprint(env) + " left as is")
			return nil
		}
		fmt.Println(ui.Success.Sprint("✓") + " Sealed environment " + ui.Highlight.Sprint(env) +
			" to " + fmt.Sprintf("%d", result.Recipients) + " key(s)")
		return nil
	},
}
