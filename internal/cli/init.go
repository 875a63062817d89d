// Package cli — init.go implements the "sprig init" command.
//
// init prepares a repository for sprig by making sure .workspaces/ is
// ignored. It is safe to run any number of times: the ignore entry is
// added at most once.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koaning/sprig/internal/model"
	"github.com/koaning/sprig/internal/workspace"
)

// initFlags holds the flag values for the init command.
type initFlags struct {
	quiet bool
}

// NewInitCommand creates the "init" cobra command.
func NewInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Prepare the repo for sprig",
		Long: `Prepare the repository for sprig by ensuring .workspaces/ is listed
in .gitignore. Must be run from the repository root.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.quiet, "quiet", false, "Reduce output")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	root, err := workspace.EnsureRoot(cwd)
	if err != nil {
		return err
	}

	if err := workspace.EnsureIgnoreEntry(root); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to update .gitignore", err)
	}

	if !flags.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Ensured %s is in .gitignore.\n", workspace.IgnoreEntry)
	}
	return nil
}
