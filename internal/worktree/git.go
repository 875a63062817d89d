package worktree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/koaning/sprig/internal/model"
	"github.com/koaning/sprig/internal/shell"
)

// ErrNoUpstream is returned by UpstreamCounts when the current branch has
// no upstream tracking branch configured.
var ErrNoUpstream = errors.New("no upstream configured")

// Info holds metadata about a single git worktree entry as parsed from
// `git worktree list --porcelain` output.
//
// Example porcelain output for a single worktree block:
//
//	worktree /path/to/feature-branch
//	HEAD abc123def456
//	branch refs/heads/feature-branch
type Info struct {
	// Path is the absolute filesystem path to the worktree directory.
	Path string

	// Branch is the full branch reference (e.g., "refs/heads/main").
	// Empty if the worktree is in a detached HEAD state.
	Branch string

	// HEAD is the commit SHA the worktree currently points to.
	HEAD string

	// IsBare indicates whether this entry represents a bare repository.
	IsBare bool
}

// Git runs git commands in a fixed working directory through a
// shell.Runner. It carries no other state; create one per directory you
// need to operate in (the repo root for workspace management, the
// workspace directory for `branch status`).
type Git struct {
	runner shell.Runner
	dir    string
}

// New creates a Git bound to the given working directory.
func New(runner shell.Runner, dir string) *Git {
	return &Git{runner: runner, dir: dir}
}

// Dir returns the working directory this Git operates in.
func (g *Git) Dir() string {
	return g.dir
}

// Fetch fetches the given branch from the named remote.
func (g *Git) Fetch(ctx context.Context, remote, branch string) error {
	_, err := g.run(ctx, "fetch", remote, branch)
	return err
}

// WorktreeAdd creates a worktree at path, force-resetting branch to
// startPoint via `git worktree add -B`. The -B form creates the branch if
// missing and resets it otherwise, which is what callers want after they
// have already decided an existing branch may be overwritten.
func (g *Git) WorktreeAdd(ctx context.Context, path, branch, startPoint string) error {
	args := []string{"worktree", "add", "-B", branch, path}
	if startPoint != "" {
		args = append(args, startPoint)
	}
	_, err := g.run(ctx, args...)
	return err
}

// WorktreeRemove deletes the worktree at path. With force, git removes the
// worktree even when it has untracked files or uncommitted changes.
func (g *Git) WorktreeRemove(ctx context.Context, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := g.run(ctx, args...)
	return err
}

// WorktreePrune removes stale worktree administrative files. Used as a
// best-effort cleanup after a workspace directory was deleted outside git.
func (g *Git) WorktreePrune(ctx context.Context) error {
	_, err := g.run(ctx, "worktree", "prune")
	return err
}

// WorktreeList returns all worktrees attached to the repository, parsed
// from `git worktree list --porcelain`.
func (g *Git) WorktreeList(ctx context.Context) ([]Info, error) {
	output, err := g.run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelain(output), nil
}

// BranchExists checks whether a local branch with the given name exists.
// Only the exit code of `git rev-parse --verify` matters.
func (g *Git) BranchExists(ctx context.Context, branch string) bool {
	_, err := g.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// DeleteBranch deletes a local branch with `git branch -D`.
func (g *Git) DeleteBranch(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "branch", "-D", branch)
	return err
}

// CurrentBranch returns the short name of the checked-out branch, or
// "HEAD" in a detached HEAD state.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	output, err := g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// StatusPorcelain returns the `git status --porcelain` output for the
// working tree. An empty string means the tree is clean.
func (g *Git) StatusPorcelain(ctx context.Context) (string, error) {
	output, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(output, "\n"), nil
}

// IsClean reports whether the working tree has no uncommitted or
// untracked changes.
func (g *Git) IsClean(ctx context.Context) (bool, error) {
	status, err := g.StatusPorcelain(ctx)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(status) == "", nil
}

// UpstreamCounts returns how many commits the current branch is ahead of
// and behind its upstream, using
// `git rev-list --left-right --count @{upstream}...HEAD`.
// Returns ErrNoUpstream when the branch has no usable tracking
// information; other rev-list failures surface as git errors.
func (g *Git) UpstreamCounts(ctx context.Context) (ahead, behind int, err error) {
	result, runErr := g.runner.Run(ctx, "git", []string{"rev-list", "--left-right", "--count", "@{upstream}...HEAD"}, shell.Options{Dir: g.dir})
	if runErr != nil {
		return 0, 0, fmt.Errorf("failed to run git rev-list: %w", runErr)
	}
	if result.ExitCode != 0 {
		stderr := strings.TrimSpace(result.Stderr)
		if missingUpstream(stderr) {
			return 0, 0, ErrNoUpstream
		}
		message := "git rev-list failed"
		if stderr != "" {
			message = fmt.Sprintf("%s: %s", message, stderr)
		}
		return 0, 0, model.NewCLIError(model.ExitGitError, message)
	}

	// Output is "<behind>\t<ahead>": left side counts commits only in the
	// upstream, right side counts commits only on HEAD.
	fields := strings.Fields(strings.TrimSpace(result.Stdout))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", result.Stdout)
	}
	behind, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", result.Stdout)
	}
	ahead, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", result.Stdout)
	}
	return ahead, behind, nil
}

// missingUpstream matches the rev-list diagnostics for a branch without
// usable tracking information: no upstream configured, a detached HEAD,
// or an upstream ref that no longer resolves.
func missingUpstream(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "no upstream configured") ||
		strings.Contains(s, "does not point to a branch") ||
		strings.Contains(s, "unknown revision")
}

// TopLevel returns the root of the working tree containing dir, via
// `git rev-parse --show-toplevel`. For a worktree this is the worktree
// root, not the main repository root.
func TopLevel(ctx context.Context, runner shell.Runner, dir string) (string, error) {
	g := New(runner, dir)
	output, err := g.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// IsWorktree checks whether path is a linked git worktree (as opposed to a
// main repository checkout). Worktrees have a .git FILE containing a
// "gitdir:" pointer; the main checkout has a .git DIRECTORY.
func IsWorktree(path string) bool {
	gitPath := filepath.Join(path, ".git")

	info, err := os.Lstat(gitPath)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	content, err := os.ReadFile(gitPath)
	if err != nil {
		return false
	}
	return strings.HasPrefix(string(content), "gitdir:")
}

// run executes a git command in g.dir. On a non-zero exit it returns a
// model.CLIError with ExitGitError including the command and its stderr.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	result, err := g.runner.Run(ctx, "git", args, shell.Options{Dir: g.dir})
	if err != nil {
		return "", model.WrapCLIError(model.ExitGitError,
			fmt.Sprintf("failed to run git %s", strings.Join(args, " ")), err)
	}
	if result.ExitCode != 0 {
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
			message = fmt.Sprintf("%s: %s", message, stderr)
		}
		return "", model.NewCLIError(model.ExitGitError, message)
	}
	return result.Stdout, nil
}

// parsePorcelain parses `git worktree list --porcelain` output. Blank
// lines separate worktree blocks; within a block each line is a
// space-separated key-value pair, with standalone markers like "bare" or
// "detached".
func parsePorcelain(output string) []Info {
	var worktrees []Info

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	var current *Info
	for _, line := range lines {
		if line == "" {
			if current != nil {
				worktrees = append(worktrees, *current)
				current = nil
			}
			continue
		}

		key, value, _ := strings.Cut(line, " ")

		switch key {
		case "worktree":
			current = &Info{Path: value}
		case "HEAD":
			if current != nil {
				current.HEAD = value
			}
		case "branch":
			if current != nil {
				current.Branch = value
			}
		case "bare":
			if current != nil {
				current.IsBare = true
			}
			// "detached" needs no handling: a detached HEAD simply
			// leaves Branch empty.
		}
	}

	if current != nil {
		worktrees = append(worktrees, *current)
	}

	return worktrees
}
