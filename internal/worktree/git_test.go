package worktree

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/koaning/sprig/internal/model"
	"github.com/koaning/sprig/internal/shell"
)

// setupTestRepo creates a temporary directory with an initialized git
// repository containing a single commit on a "main" branch, and an
// "origin" remote pointing at itself so fetch and origin/<branch> refs
// work without a network.
//
// User identity is configured at the repo level so `git commit` works in
// CI environments without a global git config.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	runTestGit(t, dir, "init")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	// Worktree commands need at least one commit to exist.
	initialFile := filepath.Join(dir, "README.md")
	err := os.WriteFile(initialFile, []byte("# Test Repo\n"), 0o644)
	require.NoError(t, err, "failed to create initial file")

	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")
	runTestGit(t, dir, "branch", "-M", "main")

	// Self-remote: fetching origin/main resolves against this same repo.
	runTestGit(t, dir, "remote", "add", "origin", dir)
	runTestGit(t, dir, "fetch", "origin", "main")

	return dir
}

// runTestGit runs a git command in the given directory and fails the test
// immediately on a non-zero exit.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

func newTestGit(t *testing.T, dir string) *Git {
	t.Helper()
	return New(shell.NewOSRunner(zap.NewNop()), dir)
}

// stubRunner returns a fixed result for every command, for exercising
// exit-code handling paths a real repository cannot easily produce.
type stubRunner struct {
	result shell.Result
}

func (r *stubRunner) Run(context.Context, string, []string, shell.Options) (shell.Result, error) {
	return r.result, nil
}

// TestFetch verifies that Fetch succeeds against the self-remote and that
// fetching a branch the remote does not have surfaces a git error.
func TestFetch(t *testing.T) {
	repo := setupTestRepo(t)
	g := newTestGit(t, repo)

	require.NoError(t, g.Fetch(context.Background(), "origin", "main"))

	err := g.Fetch(context.Background(), "origin", "no-such-branch")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGitError, cliErr.Code)
}

// TestWorktreeAdd verifies that WorktreeAdd creates the directory and
// checks out the requested branch from the given start point.
func TestWorktreeAdd(t *testing.T) {
	repo := setupTestRepo(t)
	g := newTestGit(t, repo)

	path := filepath.Join(repo, ".workspaces", "demo")
	err := g.WorktreeAdd(context.Background(), path, "workspace/demo", "origin/main")
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "worktree directory should exist after add")

	branch, err := newTestGit(t, path).CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "workspace/demo", branch)
}

// TestWorktreeAddResetsExistingBranch verifies the -B semantics: adding a
// worktree for a branch that already exists resets it to the start point
// instead of failing.
func TestWorktreeAddResetsExistingBranch(t *testing.T) {
	repo := setupTestRepo(t)
	g := newTestGit(t, repo)

	runTestGit(t, repo, "branch", "workspace/demo")

	path := filepath.Join(repo, ".workspaces", "demo")
	err := g.WorktreeAdd(context.Background(), path, "workspace/demo", "origin/main")
	require.NoError(t, err)

	assert.True(t, g.BranchExists(context.Background(), "workspace/demo"))
}

// TestWorktreeRemove verifies removal of a worktree directory, including
// the force path for a dirty worktree.
func TestWorktreeRemove(t *testing.T) {
	repo := setupTestRepo(t)
	g := newTestGit(t, repo)

	path := filepath.Join(repo, ".workspaces", "demo")
	require.NoError(t, g.WorktreeAdd(context.Background(), path, "workspace/demo", "origin/main"))

	// Make the worktree dirty; plain remove must refuse, force must not.
	require.NoError(t, os.WriteFile(filepath.Join(path, "scratch.txt"), []byte("wip\n"), 0o644))

	err := g.WorktreeRemove(context.Background(), path, false)
	assert.Error(t, err, "removing a dirty worktree without force should fail")

	require.NoError(t, g.WorktreeRemove(context.Background(), path, true))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "worktree directory should be gone")
}

// TestWorktreeList verifies that List reports the main checkout plus any
// added worktrees.
func TestWorktreeList(t *testing.T) {
	repo := setupTestRepo(t)
	g := newTestGit(t, repo)

	path := filepath.Join(repo, ".workspaces", "demo")
	require.NoError(t, g.WorktreeAdd(context.Background(), path, "workspace/demo", "origin/main"))

	infos, err := g.WorktreeList(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	branches := make([]string, 0, len(infos))
	for _, info := range infos {
		branches = append(branches, info.Branch)
	}
	assert.Contains(t, branches, "refs/heads/main")
	assert.Contains(t, branches, "refs/heads/workspace/demo")
}

// TestParsePorcelain exercises the porcelain parser against canned output,
// including bare and detached entries that a real test repo would not
// easily produce.
func TestParsePorcelain(t *testing.T) {
	output := "worktree /repo\nHEAD abc123\nbranch refs/heads/main\n\n" +
		"worktree /repo/.workspaces/demo\nHEAD def456\nbranch refs/heads/workspace/demo\n\n" +
		"worktree /bare\nbare\n\n" +
		"worktree /detached\nHEAD 789abc\ndetached\n"

	infos := parsePorcelain(output)
	require.Len(t, infos, 4)

	assert.Equal(t, "/repo", infos[0].Path)
	assert.Equal(t, "refs/heads/main", infos[0].Branch)
	assert.Equal(t, "abc123", infos[0].HEAD)

	assert.Equal(t, "refs/heads/workspace/demo", infos[1].Branch)

	assert.True(t, infos[2].IsBare)

	assert.Empty(t, infos[3].Branch, "detached HEAD has no branch")
	assert.Equal(t, "789abc", infos[3].HEAD)
}

// TestBranchExists verifies branch existence checks against real refs.
func TestBranchExists(t *testing.T) {
	repo := setupTestRepo(t)
	g := newTestGit(t, repo)

	assert.True(t, g.BranchExists(context.Background(), "main"))
	assert.False(t, g.BranchExists(context.Background(), "nope"))

	runTestGit(t, repo, "branch", "workspace/demo")
	assert.True(t, g.BranchExists(context.Background(), "workspace/demo"))
}

// TestDeleteBranch verifies that DeleteBranch removes the ref.
func TestDeleteBranch(t *testing.T) {
	repo := setupTestRepo(t)
	g := newTestGit(t, repo)

	runTestGit(t, repo, "branch", "workspace/demo")
	require.NoError(t, g.DeleteBranch(context.Background(), "workspace/demo"))
	assert.False(t, g.BranchExists(context.Background(), "workspace/demo"))
}

// TestIsClean verifies clean/dirty detection through status --porcelain.
func TestIsClean(t *testing.T) {
	repo := setupTestRepo(t)
	g := newTestGit(t, repo)

	clean, err := g.IsClean(context.Background())
	require.NoError(t, err)
	assert.True(t, clean)

	require.NoError(t, os.WriteFile(filepath.Join(repo, "dirty.txt"), []byte("x\n"), 0o644))

	clean, err = g.IsClean(context.Background())
	require.NoError(t, err)
	assert.False(t, clean)

	status, err := g.StatusPorcelain(context.Background())
	require.NoError(t, err)
	assert.Contains(t, status, "dirty.txt")
}

// TestUpstreamCounts verifies ahead/behind reporting for a branch with an
// upstream, and the ErrNoUpstream sentinel without one.
func TestUpstreamCounts(t *testing.T) {
	repo := setupTestRepo(t)

	path := filepath.Join(repo, ".workspaces", "demo")
	g := newTestGit(t, repo)
	require.NoError(t, g.WorktreeAdd(context.Background(), path, "workspace/demo", "origin/main"))

	wg := newTestGit(t, path)

	// Freshly created from origin/main with no upstream configured.
	_, _, err := wg.UpstreamCounts(context.Background())
	assert.ErrorIs(t, err, ErrNoUpstream)

	runTestGit(t, path, "branch", "--set-upstream-to", "origin/main")

	ahead, behind, err := wg.UpstreamCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, ahead)
	assert.Equal(t, 0, behind)

	// One local commit puts the branch ahead by one.
	require.NoError(t, os.WriteFile(filepath.Join(path, "work.txt"), []byte("change\n"), 0o644))
	runTestGit(t, path, "add", ".")
	runTestGit(t, path, "commit", "-m", "workspace change")

	ahead, behind, err = wg.UpstreamCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 0, behind)
}

// TestUpstreamCountsSurfacesGitErrors verifies that only missing-upstream
// diagnostics map to ErrNoUpstream; any other rev-list failure comes back
// as a git error.
func TestUpstreamCountsSurfacesGitErrors(t *testing.T) {
	tests := []struct {
		name       string
		stderr     string
		noUpstream bool
	}{
		{name: "no upstream", stderr: "fatal: no upstream configured for branch 'workspace/demo'", noUpstream: true},
		{name: "detached head", stderr: "fatal: HEAD does not point to a branch", noUpstream: true},
		{name: "gone upstream ref", stderr: "fatal: ambiguous argument '@{upstream}...HEAD': unknown revision or path not in the working tree.", noUpstream: true},
		{name: "not a repository", stderr: "fatal: not a git repository (or any of the parent directories): .git", noUpstream: false},
		{name: "corrupt object", stderr: "error: object file .git/objects/ab/cdef is empty\nfatal: bad object HEAD", noUpstream: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(&stubRunner{result: shell.Result{ExitCode: 128, Stderr: tt.stderr}}, t.TempDir())

			_, _, err := g.UpstreamCounts(context.Background())
			require.Error(t, err)

			if tt.noUpstream {
				assert.ErrorIs(t, err, ErrNoUpstream)
				return
			}
			assert.NotErrorIs(t, err, ErrNoUpstream)
			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, model.ExitGitError, cliErr.Code)
		})
	}
}

// TestTopLevel verifies that TopLevel resolves the working-tree root from
// a nested directory, and the worktree root from inside a worktree.
func TestTopLevel(t *testing.T) {
	repo := setupTestRepo(t)
	runner := shell.NewOSRunner(zap.NewNop())

	nested := filepath.Join(repo, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	root, err := TopLevel(context.Background(), runner, nested)
	require.NoError(t, err)
	resolved, _ := filepath.EvalSymlinks(repo)
	assert.Equal(t, resolved, root)

	path := filepath.Join(repo, ".workspaces", "demo")
	g := newTestGit(t, repo)
	require.NoError(t, g.WorktreeAdd(context.Background(), path, "workspace/demo", "origin/main"))

	wtRoot, err := TopLevel(context.Background(), runner, path)
	require.NoError(t, err)
	resolvedWt, _ := filepath.EvalSymlinks(path)
	assert.Equal(t, resolvedWt, wtRoot)
}

// TestIsWorktree verifies the .git file-vs-directory distinction.
func TestIsWorktree(t *testing.T) {
	repo := setupTestRepo(t)
	g := newTestGit(t, repo)

	assert.False(t, IsWorktree(repo), "main checkout is not a worktree")

	path := filepath.Join(repo, ".workspaces", "demo")
	require.NoError(t, g.WorktreeAdd(context.Background(), path, "workspace/demo", "origin/main"))
	assert.True(t, IsWorktree(path))

	assert.False(t, IsWorktree(t.TempDir()), "plain directory is not a worktree")
}
