// Package shell provides a stub-friendly abstraction for running external
// commands (git, make).
//
// The Runner interface is deliberately narrow — run a command, return its
// stdout, stderr, and exit code — so that higher layers (worktree, workspace)
// can be tested with a fake that never touches the filesystem or network.
//
// The OSRunner implementation is backed by os/exec and logs every invocation
// (command, working directory, exit code, duration) to a zap logger at debug
// level, which surfaces under the CLI's --verbose flag.
package shell
