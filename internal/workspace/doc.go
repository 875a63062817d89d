// Package workspace implements the workspace lifecycle on top of the
// worktree and config packages.
//
// A workspace is a directory .workspaces/<name> at the repository root,
// created as a git worktree checked out on its own branch
// (workspace/<name> by default), with a config record inside. The Manager
// orchestrates creation, listing, and removal; free functions handle
// repository location, workspace detection from a working directory, the
// idempotent .gitignore entry, and the status report used by
// `sprig branch status`.
//
// The repository root is resolved once at command entry and passed in
// explicitly, keeping the handlers testable without ambient state.
package workspace
