package model

import (
	"fmt"
	"regexp"
	"time"
)

// Workspace represents a managed workspace — a git worktree under
// .workspaces/ paired with the branch it is checked out on. This is the
// primary aggregate entity in the domain.
//
// Instances are reconstructed from the filesystem and each workspace's
// config record; nothing beyond those two sources is persisted.
type Workspace struct {
	// Name is the unique identifier for the workspace and the name of
	// its directory under .workspaces/.
	Name string

	// Branch is the git branch the worktree is checked out on
	// (by default "workspace/<name>").
	Branch string

	// Base is the branch the workspace was created from (e.g. "main").
	Base string

	// Path is the absolute filesystem path to the workspace directory.
	Path string

	// CreatedAt is the timestamp when the workspace was created.
	CreatedAt time.Time
}

// nameRegex validates workspace names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid workspace name.
// Valid names contain only alphanumeric characters and hyphens, and must
// start/end with an alphanumeric character. This keeps the derived branch
// name (workspace/<name>) a valid git ref and the directory name portable.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("workspace name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid workspace name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitNotRepoRoot indicates the command was run outside a git
	// repository, or from a directory it must not run from (e.g. a
	// root-only command invoked inside a workspace).
	ExitNotRepoRoot ExitCode = 2

	// ExitGitError indicates a git operation (fetch, worktree add/remove)
	// failed.
	ExitGitError ExitCode = 3

	// ExitWorkspaceExists indicates the target workspace directory or its
	// branch already exists and --force was not given.
	ExitWorkspaceExists ExitCode = 4

	// ExitWorkspaceNotFound indicates the named workspace does not exist.
	ExitWorkspaceNotFound ExitCode = 5

	// ExitDirtyTree indicates the working tree has uncommitted changes
	// and the command refused to proceed without --force.
	ExitDirtyTree ExitCode = 6

	// ExitUserCancelled indicates the user declined an interactive prompt.
	ExitUserCancelled ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
