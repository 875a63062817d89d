// Package model defines the domain types and value objects for the
// sprig CLI.
//
// This package contains pure data structures with no external dependencies.
// A Workspace pairs a git worktree under .workspaces/ with the branch it is
// checked out on; the on-disk config record that backs it lives in the
// config package.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
