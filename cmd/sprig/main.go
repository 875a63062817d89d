// Package main is the entry point for the sprig CLI.
//
// sprig manages isolated agent workspaces inside a git repository. Each
// workspace is a git worktree under .workspaces/ checked out on its own
// branch, plus a small config record. All functionality lives in the
// internal/cli package, which defines cobra commands.
package main

import (
	"github.com/koaning/sprig/internal/cli"
)

// version, commit, and date are set by GoReleaser at build time via
// ldflags. During development they default to "dev", "none", "unknown".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
