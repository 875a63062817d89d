package workspace

import (
	"context"
	"errors"

	"github.com/koaning/sprig/internal/shell"
	"github.com/koaning/sprig/internal/worktree"
)

// BranchStatus is the state report for the workspace the caller is
// standing in, produced by `sprig branch status`.
type BranchStatus struct {
	// Root is the repository root the workspace belongs to.
	Root string

	// Name is the workspace name.
	Name string

	// Branch is the branch checked out in the workspace, or "HEAD" when
	// detached.
	Branch string

	// HasUpstream reports whether the branch tracks an upstream.
	HasUpstream bool

	// Ahead and Behind count commits relative to the upstream. Only
	// meaningful when HasUpstream is true.
	Ahead  int
	Behind int

	// Dirty reports whether the workspace has uncommitted or untracked
	// changes; Porcelain holds the `git status --porcelain` listing.
	Dirty     bool
	Porcelain string
}

// Status inspects the workspace containing cwd. Git runs at the
// workspace's own top level, so the report covers the workspace checkout
// rather than the main one and porcelain paths stay workspace-relative
// even when called from a nested directory.
func Status(ctx context.Context, runner shell.Runner, cwd string) (BranchStatus, error) {
	root, name, err := EnsureWorkspace(cwd)
	if err != nil {
		return BranchStatus{}, err
	}

	wtRoot, err := worktree.TopLevel(ctx, runner, cwd)
	if err != nil {
		return BranchStatus{}, err
	}

	g := worktree.New(runner, wtRoot)

	branch, err := g.CurrentBranch(ctx)
	if err != nil {
		return BranchStatus{}, err
	}

	status := BranchStatus{
		Root:   root,
		Name:   name,
		Branch: branch,
	}

	ahead, behind, upErr := g.UpstreamCounts(ctx)
	switch {
	case upErr == nil:
		status.HasUpstream = true
		status.Ahead = ahead
		status.Behind = behind
	case errors.Is(upErr, worktree.ErrNoUpstream):
		// Fine: freshly created workspace branches have no upstream
		// until the first push.
	default:
		return BranchStatus{}, upErr
	}

	porcelain, err := g.StatusPorcelain(ctx)
	if err != nil {
		return BranchStatus{}, err
	}
	status.Porcelain = porcelain
	status.Dirty = porcelain != ""

	return status, nil
}
