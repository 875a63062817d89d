// Package cli — new.go implements the "sprig new" command, the primary
// user-facing operation.
//
// Orchestration steps:
//  1. Verify the command runs at the repository root
//  2. Resolve settings (flags > AGENT_WS_* env > .sprig.yaml > defaults)
//  3. Fetch the base branch and verify tree cleanliness
//  4. Create a worktree at .workspaces/<name> on workspace/<name>
//  5. Scaffold the config record and ensure the ignore entry
//  6. Run `make setup` unless skipped
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/koaning/sprig/internal/config"
	"github.com/koaning/sprig/internal/model"
	"github.com/koaning/sprig/internal/shell"
	"github.com/koaning/sprig/internal/workspace"
)

// newFlags holds the flag values for the new command.
type newFlags struct {
	branch          string // --branch: base branch to fetch before creating
	workspaceBranch string // --workspace-branch: branch for the worktree
	noSetup         bool   // --no-setup: skip `make setup`
	force           bool   // --force: overwrite an existing workspace
	quiet           bool   // --quiet: reduce output
}

// NewNewCommand creates the "new" cobra command.
func NewNewCommand() *cobra.Command {
	flags := &newFlags{}

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a new workspace",
		Long: `Create a new workspace from the repository root.

The workspace is a git worktree at .workspaces/<name>, checked out on a
fresh workspace/<name> branch cut from origin/<base>. The name defaults
to the repository directory name.

Examples:
  sprig new demo
  sprig new demo -b main
  sprig new demo --workspace-branch agent/demo --no-setup
  sprig new demo --force`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runNew(cmd, name, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.branch, "branch", "b", "", "Base branch to pull before creating (default: AGENT_WS_BRANCH or main)")
	cmd.Flags().StringVarP(&flags.workspaceBranch, "workspace-branch", "w", "", "Branch name for the new workspace (default: workspace/<name>)")
	cmd.Flags().BoolVar(&flags.noSetup, "no-setup", false, "Skip `make setup`")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite an existing workspace if present")
	cmd.Flags().BoolVar(&flags.quiet, "quiet", false, "Reduce output")

	return cmd
}

func runNew(cmd *cobra.Command, name string, flags *newFlags) error {
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
	runner := shell.NewOSRunner(log)
	manager := workspace.NewManager(root, settings, runner, log, cmd.OutOrStdout())

	_, err = manager.Create(cmd.Context(), workspace.CreateOptions{
		Name:            name,
		Branch:          flags.branch,
		WorkspaceBranch: flags.workspaceBranch,
		NoSetup:         flags.noSetup,
		Force:           flags.force,
		Quiet:           flags.quiet,
	})
	return err
}
