// Package cli — list.go implements the "sprig list" command.
//
// list enumerates the directories under .workspaces/ and reports each
// workspace's name and branch (the checked-out branch when git knows the
// directory, the config record otherwise). It mutates nothing and can be
// re-run freely.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/koaning/sprig/internal/config"
	"github.com/koaning/sprig/internal/model"
	"github.com/koaning/sprig/internal/shell"
	"github.com/koaning/sprig/internal/workspace"
)

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available workspaces",
		Long:  `List the workspaces under .workspaces/ with their branches (repo root only).`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd)
		},
	}
}

func runList(cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	root, err := workspace.EnsureRoot(cwd)
	if err != nil {
		return err
	}

	settings, err := config.LoadSettings(root)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load settings", err)
	}

	log := newLogger()
	manager := workspace.NewManager(root, settings, shell.NewOSRunner(log), log, cmd.OutOrStdout())

	workspaces, err := manager.List(cmd.Context())
	if err != nil {
		return err
	}

	printWorkspaceList(cmd.OutOrStdout(), workspaces)
	return nil
}

// printWorkspaceList renders one workspace per line: the name, then the
// branch ("-" when neither git nor a record knows one).
func printWorkspaceList(out io.Writer, workspaces []model.Workspace) {
	if len(workspaces) == 0 {
		fmt.Fprintln(out, "No workspaces yet.")
		return
	}

	width := 0
	for _, ws := range workspaces {
		if len(ws.Name) > width {
			width = len(ws.Name)
		}
	}

	for _, ws := range workspaces {
		branch := ws.Branch
		if branch == "" {
			branch = "-"
		}
		fmt.Fprintf(out, "%-*s  %s\n", width, ws.Name, branch)
	}
}
