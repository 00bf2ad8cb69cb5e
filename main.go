package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/envlock/envlock/cmd"
	apperrors "github.com/envlock/envlock/internal/errors"
	"github.com/envlock/envlock/internal/ui"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		// A child process's own exit status is mirrored without commentary;
		// everything else is reported with its taxonomy kind.
		var child *apperrors.ChildExitError
		if !errors.As(err, &child) {
			fmt.Fprintln(os.Stderr, ui.Error.Sprint("✗")+" "+err.Error())
		}
		os.Exit(apperrors.ExitCode(err))
	}
}
