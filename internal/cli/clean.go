// Package cli — clean.go implements the "sprig clean" command.
//
// clean removes a workspace from the repository root: the git worktree
// and its directory go away, the branch ref stays unless --delete-branch
// is passed. A confirmation prompt guards the removal unless --yes.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koaning/sprig/internal/config"
	"github.com/koaning/sprig/internal/model"
	"github.com/koaning/sprig/internal/shell"
	"github.com/koaning/sprig/internal/workspace"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	yes          bool // --yes: skip the confirmation prompt
	deleteBranch bool // --delete-branch: also delete the workspace branch
	quiet        bool // --quiet: reduce output
}

// NewCleanCommand creates the "clean" cobra command.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean <name>",
		Short: "Remove a workspace",
		Long: `Remove a workspace (repo root only).

The workspace's git worktree and directory are removed. The workspace
branch is left alone unless --delete-branch is given, so work on it can
still be recovered.

Examples:
  sprig clean demo
  sprig clean demo --yes
  sprig clean demo --yes --delete-branch`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, args[0], flags, cmd.InOrStdin())
		},
	}

	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Skip confirmation")
	cmd.Flags().BoolVar(&flags.deleteBranch, "delete-branch", false, "Also delete the workspace branch")
	cmd.Flags().BoolVar(&flags.quiet, "quiet", false, "Reduce output")

	return cmd
}

func runClean(cmd *cobra.Command, name string, flags *cleanFlags, in io.Reader) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	root, err := workspace.EnsureRoot(cwd)
	if err != nil {
		return err
	}

	dir := filepath.Join(root, workspace.Dir, name)
	if _, statErr := os.Stat(dir); statErr != nil {
		return model.NewCLIError(model.ExitWorkspaceNotFound,
			fmt.Sprintf("workspace %s does not exist at %s", name, dir))
	}

	if !flags.yes {
		confirmed, promptErr := promptConfirmation(cmd.OutOrStdout(), in, dir)
		if promptErr != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", promptErr)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	settings, err := config.LoadSettings(root)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load settings", err)
	}

	log := newLogger()
	manager := workspace.NewManager(root, settings, shell.NewOSRunner(log), log, cmd.OutOrStdout())

	return manager.Remove(cmd.Context(), name, workspace.RemoveOptions{
		DeleteBranch: flags.deleteBranch,
		Quiet:        flags.quiet,
	})
}

// promptConfirmation asks the user to confirm the removal. It reads a
// single line from in and accepts "y" or "yes", case-insensitive.
func promptConfirmation(out io.Writer, in io.Reader, dir string) (bool, error) {
	fmt.Fprintf(out, "Remove workspace %s? [y/N] ", dir)

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}

	// Closed stdin counts as "no".
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}
