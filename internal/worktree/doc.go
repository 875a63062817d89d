// Package worktree provides the git operations sprig needs: fetching,
// worktree add/remove, branch queries, and working-tree status.
//
// All git operations are performed by shelling out to the git binary
// through a shell.Runner, rather than using a git library like go-git.
// This approach:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same git behavior the user sees in their terminal
//   - Requires Git >= 2.15 (when worktree support matured)
//
// The Git struct binds a Runner to a working directory; non-zero git exit
// codes are wrapped into model.CLIError with ExitGitError so the CLI layer
// exits with the right status.
package worktree
