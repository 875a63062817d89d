// Package cli implements the cobra-based CLI commands for sprig.
//
// Each subcommand (init, new, list, clean, branch) is defined in its own
// file within this package. This file defines the root command that serves
// as the parent for all subcommands and handles global flags.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/koaning/sprig/internal/model"
)

// verbose enables debug logging on stderr. Bound to the persistent
// --verbose flag on the root command, making it available to every
// subcommand.
var verbose bool

// Version, Commit, and Date are set at build time via ldflags. They are
// injected from the main package to display version information.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself performs no action — it only provides help text
// and global flags. Actual functionality lives in the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sprig",
		Short: "Manage agent workspaces inside a git repo",
		Long: `sprig scaffolds and manages isolated workspace directories backed by
git worktrees, so multiple agents or developers can work concurrently on
separate branches of the same repository.

Each workspace lives at .workspaces/<name>, checked out on its own branch
(workspace/<name> by default), with a small config.yaml record inside.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Execute formats them itself.
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewNewCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewCleanCommand())
	rootCmd.AddCommand(NewBranchCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// CLIError values carry their own exit codes; other errors default to
// exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to a process exit code: the code of the first
// CLIError anywhere in the wrap chain, or 1.
func exitCode(err error) int {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return int(cliErr.Code)
	}
	return int(model.ExitGeneralError)
}

// printError writes "Error: <message>" to stderr.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
}

// newLogger builds the logger handed to the shell runner and the
// workspace manager: a development-config logger on stderr under
// --verbose, a nop logger otherwise.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewVersionCommand creates the "version" command, a spelled-out
// equivalent of --version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the sprig version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}
