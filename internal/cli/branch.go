// Package cli — branch.go implements the "sprig branch" command group,
// meant to run from inside a workspace.
//
// "branch status" reports the workspace's branch, upstream tracking
// state, and dirty/clean status. "branch clean" only prints the removal
// commands to run from the repository root — it never removes the
// directory the calling process is standing in.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koaning/sprig/internal/model"
	"github.com/koaning/sprig/internal/shell"
	"github.com/koaning/sprig/internal/workspace"
)

// NewBranchCommand creates the "branch" command group with its status and
// clean subcommands.
func NewBranchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Commands meant to run from inside a workspace",
	}

	cmd.AddCommand(newBranchStatusCommand())
	cmd.AddCommand(newBranchCleanCommand())

	return cmd
}

func newBranchStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of the current workspace",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
			}

			runner := shell.NewOSRunner(newLogger())
			status, err := workspace.Status(cmd.Context(), runner, cwd)
			if err != nil {
				return err
			}

			printBranchStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newBranchCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Show how to remove the current workspace",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
			}

			root, name, err := workspace.EnsureWorkspace(cwd)
			if err != nil {
				return err
			}

			// Removing the directory a process is executing inside is
			// asking for trouble, so only print the safe commands.
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "You are inside %s/%s.\n", workspace.Dir, name)
			fmt.Fprintf(out, "Run `cd %s` then `sprig clean %s` to remove this workspace.\n", root, name)
			return nil
		},
	}
}

// printBranchStatus renders the status report.
func printBranchStatus(out io.Writer, status workspace.BranchStatus) {
	fmt.Fprintf(out, "Repo root: %s\n", status.Root)
	fmt.Fprintf(out, "Workspace: %s\n", status.Name)
	fmt.Fprintf(out, "Git branch: %s\n", status.Branch)
	fmt.Fprintf(out, "Upstream: %s\n", formatUpstream(status))

	fmt.Fprintln(out, "Git status:")
	if status.Dirty {
		fmt.Fprintln(out, indentLines(status.Porcelain))
	} else {
		fmt.Fprintln(out, "  clean")
	}
}

// formatUpstream summarises the tracking state: "up to date",
// "ahead N, behind M", or "none".
func formatUpstream(status workspace.BranchStatus) string {
	if !status.HasUpstream {
		return "none"
	}
	if status.Ahead == 0 && status.Behind == 0 {
		return "up to date"
	}
	return fmt.Sprintf("ahead %d, behind %d", status.Ahead, status.Behind)
}

// indentLines prefixes every line of s with two spaces.
func indentLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
