package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/koaning/sprig/internal/config"
	"github.com/koaning/sprig/internal/model"
	"github.com/koaning/sprig/internal/shell"
	"github.com/koaning/sprig/internal/worktree"
)

// Manager orchestrates the workspace lifecycle for one repository root.
type Manager struct {
	root     string
	settings config.Settings
	runner   shell.Runner
	git      *worktree.Git
	log      *zap.Logger
	out      io.Writer
}

// NewManager creates a Manager for the repository rooted at root. The
// runner is used for all subprocess calls (git and the setup step); out
// receives progress messages and defaults to os.Stdout when nil.
func NewManager(root string, settings config.Settings, runner shell.Runner, log *zap.Logger, out io.Writer) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Manager{
		root:     root,
		settings: settings,
		runner:   runner,
		git:      worktree.New(runner, root),
		log:      log,
		out:      out,
	}
}

// CreateOptions holds the inputs for Create. Zero values fall back to
// settings and naming conventions.
type CreateOptions struct {
	// Name is the workspace name. Empty means the repository directory name.
	Name string

	// Branch is the upstream branch to fetch and base the workspace on.
	// Empty means the settings default (AGENT_WS_BRANCH or "main").
	Branch string

	// WorkspaceBranch is the branch for the new worktree. Empty means
	// <prefix><name> (workspace/<name> by default).
	WorkspaceBranch string

	// NoSetup skips the `make setup` step.
	NoSetup bool

	// Force allows replacing an existing workspace directory and branch.
	Force bool

	// Quiet suppresses progress output.
	Quiet bool
}

// Create builds a new workspace: fetch the base branch, check tree
// cleanliness, add the worktree, scaffold the config record, keep the
// ignore entry, and run the setup step.
//
// Without Force, an existing workspace directory or branch aborts the
// operation before anything is modified.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (model.Workspace, error) {
	name := opts.Name
	if name == "" {
		name = filepath.Base(m.root)
	}
	if err := model.ValidateName(name); err != nil {
		return model.Workspace{}, model.WrapCLIError(model.ExitGeneralError, "cannot create workspace", err)
	}

	base := opts.Branch
	if base == "" {
		base = m.settings.Branch
	}
	branch := opts.WorkspaceBranch
	if branch == "" {
		branch = m.settings.WorkspaceBranchPrefix + name
	}
	dir := filepath.Join(m.root, Dir, name)

	m.log.Debug("creating workspace",
		zap.String("name", name),
		zap.String("branch", branch),
		zap.String("base", base),
		zap.Bool("skip_git", m.settings.SkipGit))

	if m.settings.SkipGit {
		// Test-only escape hatch: no fetch, no worktree, just the
		// directory and its scaffolding.
		m.echo(opts.Quiet, "Skipping git fetch/worktree (%s_SKIP_GIT set).", config.EnvPrefix)
		if err := m.prepareDirectoryOnly(dir, name, opts.Force); err != nil {
			return model.Workspace{}, err
		}
	} else {
		if err := m.createWorktree(ctx, dir, name, branch, base, opts); err != nil {
			return model.Workspace{}, err
		}
	}

	ws := model.Workspace{
		Name:      name,
		Branch:    branch,
		Base:      base,
		Path:      dir,
		CreatedAt: time.Now().UTC(),
	}

	rec := config.Record{
		Name:    name,
		Branch:  branch,
		Base:    base,
		Created: ws.CreatedAt,
	}
	if err := scaffold(dir, rec); err != nil {
		return model.Workspace{}, model.WrapCLIError(model.ExitGeneralError, "failed to scaffold workspace", err)
	}

	if err := EnsureIgnoreEntry(m.root); err != nil {
		return model.Workspace{}, model.WrapCLIError(model.ExitGeneralError, "failed to update .gitignore", err)
	}

	if opts.NoSetup || m.settings.SkipSetup {
		m.echo(opts.Quiet, "Skipping `make setup` (flag or env set).")
	} else if err := m.RunSetup(ctx, ws, opts.Quiet); err != nil {
		return model.Workspace{}, err
	}

	rel := filepath.Join(Dir, name)
	m.echo(opts.Quiet, "Workspace ready at %s", rel)
	m.echo(opts.Quiet, "Next: cd %s", rel)

	return ws, nil
}

// createWorktree performs the git half of Create: fetch, cleanliness
// check, existence checks, and the worktree add itself.
func (m *Manager) createWorktree(ctx context.Context, dir, name, branch, base string, opts CreateOptions) error {
	m.echo(opts.Quiet, "Fetching origin/%s...", base)
	if err := m.git.Fetch(ctx, "origin", base); err != nil {
		return model.WrapCLIError(model.ExitGitError,
			fmt.Sprintf("git fetch failed for origin/%s; if you're offline or in CI, set %s_SKIP_GIT=1", base, config.EnvPrefix), err)
	}

	clean, err := m.git.IsClean(ctx)
	if err != nil {
		return err
	}
	if !clean && !opts.Force {
		return model.NewCLIError(model.ExitDirtyTree,
			"working tree has uncommitted changes; commit or stash them, or pass --force")
	}

	if _, statErr := os.Stat(dir); statErr == nil {
		if !opts.Force {
			return model.NewCLIError(model.ExitWorkspaceExists,
				fmt.Sprintf("workspace %s already exists; use --force to overwrite", name))
		}
		if err := m.removeWorkspaceDir(ctx, dir, name); err != nil {
			return err
		}
	}

	if m.git.BranchExists(ctx, branch) {
		if !opts.Force {
			return model.NewCLIError(model.ExitWorkspaceExists,
				fmt.Sprintf("branch %s already exists; use --force to overwrite", branch))
		}
		if delErr := m.git.DeleteBranch(ctx, branch); delErr != nil {
			return delErr
		}
	}

	startPoint := "origin/" + base
	m.echo(opts.Quiet, "Creating worktree at %s on %s from %s...", dir, branch, startPoint)
	return m.git.WorktreeAdd(ctx, dir, branch, startPoint)
}

// prepareDirectoryOnly is the skip-git variant of workspace creation: it
// only creates the directory, refusing to clobber an existing one without
// Force.
func (m *Manager) prepareDirectoryOnly(dir, name string, force bool) error {
	if _, err := os.Stat(dir); err == nil {
		if !force {
			return model.NewCLIError(model.ExitWorkspaceExists,
				fmt.Sprintf("workspace %s already exists; use --force to overwrite", name))
		}
		if err := os.RemoveAll(dir); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to remove existing workspace %s", name), err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to create workspace directory %s", dir), err)
	}
	return nil
}

// List enumerates the directories under .workspaces/ sorted by name. The
// branch comes from the worktree listing when git knows the directory,
// with the config record as the fallback, so a checkout switched by hand
// is reported as it actually is. A workspace without either source leaves
// the branch empty rather than failing the listing. No state is mutated;
// calling List again restarts the enumeration.
func (m *Manager) List(ctx context.Context) ([]model.Workspace, error) {
	entries, err := os.ReadDir(filepath.Join(m.root, Dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to read workspaces directory", err)
	}

	checkouts := m.checkedOutBranches(ctx)

	var workspaces []model.Workspace
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ws := model.Workspace{
			Name: entry.Name(),
			Path: filepath.Join(m.root, Dir, entry.Name()),
		}
		if rec, recErr := config.ReadRecord(ws.Path); recErr == nil {
			ws.Branch = rec.Branch
			ws.Base = rec.Base
			ws.CreatedAt = rec.Created
		}
		if branch, ok := lookupCheckout(checkouts, ws.Path); ok {
			ws.Branch = branch
		}
		workspaces = append(workspaces, ws)
	}

	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].Name < workspaces[j].Name
	})
	return workspaces, nil
}

// checkedOutBranches maps worktree paths to their checked-out branch
// names. Best effort: when git is skipped or the listing fails, the
// config records alone drive the output.
func (m *Manager) checkedOutBranches(ctx context.Context) map[string]string {
	if m.settings.SkipGit {
		return nil
	}

	infos, err := m.git.WorktreeList(ctx)
	if err != nil {
		m.log.Debug("worktree list failed", zap.Error(err))
		return nil
	}

	branches := make(map[string]string, len(infos))
	for _, info := range infos {
		if info.IsBare || info.Branch == "" {
			continue
		}
		branches[info.Path] = strings.TrimPrefix(info.Branch, "refs/heads/")
	}
	return branches
}

// lookupCheckout finds the branch for a workspace path, retrying with
// symlinks resolved since git reports resolved paths in its listing.
func lookupCheckout(checkouts map[string]string, path string) (string, bool) {
	if branch, ok := checkouts[path]; ok {
		return branch, true
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	branch, ok := checkouts[resolved]
	return branch, ok
}

// RemoveOptions holds the inputs for Remove.
type RemoveOptions struct {
	// DeleteBranch also deletes the workspace's branch ref. The default
	// leaves the branch alone so work on it can be recovered.
	DeleteBranch bool

	// Quiet suppresses progress output.
	Quiet bool
}

// Remove deletes the named workspace (through git for registered
// worktrees, directly otherwise) and optionally the branch ref. The
// repository root itself can never be a removal target since workspaces
// live strictly under .workspaces/.
func (m *Manager) Remove(ctx context.Context, name string, opts RemoveOptions) error {
	if err := model.ValidateName(name); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "cannot remove workspace", err)
	}
	dir := filepath.Join(m.root, Dir, name)

	if _, err := os.Stat(dir); err != nil {
		return model.NewCLIError(model.ExitWorkspaceNotFound,
			fmt.Sprintf("workspace %s does not exist at %s", name, dir))
	}

	// Read the record before the directory disappears; the branch name
	// in it beats the naming convention when --delete-branch is asked for.
	branch := m.settings.WorkspaceBranchPrefix + name
	if rec, recErr := config.ReadRecord(dir); recErr == nil && rec.Branch != "" {
		branch = rec.Branch
	}

	if err := m.removeWorkspaceDir(ctx, dir, name); err != nil {
		return err
	}

	if opts.DeleteBranch && m.git.BranchExists(ctx, branch) {
		if err := m.git.DeleteBranch(ctx, branch); err != nil {
			return err
		}
		m.echo(opts.Quiet, "Deleted branch %s", branch)
	}

	m.echo(opts.Quiet, "Removed %s", filepath.Join(Dir, name))
	return nil
}

// removeWorkspaceDir deletes a workspace directory. Registered worktrees
// go through `git worktree remove` so git unregisters them; anything else
// (skip-git workspaces, directories restored from a backup) is removed
// directly, followed by a prune of whatever git still has on record.
func (m *Manager) removeWorkspaceDir(ctx context.Context, dir, name string) error {
	if worktree.IsWorktree(dir) {
		return m.git.WorktreeRemove(ctx, dir, true)
	}

	m.log.Debug("not a registered worktree, removing directory",
		zap.String("workspace", name))
	if rmErr := os.RemoveAll(dir); rmErr != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to remove workspace %s", name), rmErr)
	}
	if pruneErr := m.git.WorktreePrune(ctx); pruneErr != nil {
		m.log.Debug("worktree prune failed", zap.Error(pruneErr))
	}
	return nil
}

// RunSetup runs `make setup` at the repository root with the workspace
// exported as SPRIG_WORKSPACE and SPRIG_WORKSPACE_DIR, so setup targets
// can provision the workspace they were triggered for. Skipped with a
// notice when there is no Makefile.
func (m *Manager) RunSetup(ctx context.Context, ws model.Workspace, quiet bool) error {
	if _, err := os.Stat(filepath.Join(m.root, "Makefile")); err != nil {
		m.echo(quiet, "Skipping `make setup` (no Makefile found).")
		return nil
	}

	m.echo(quiet, "Running `make setup`...")
	env := map[string]string{
		"SPRIG_WORKSPACE":     ws.Name,
		"SPRIG_WORKSPACE_DIR": ws.Path,
	}
	result, err := m.runner.Run(ctx, "make", []string{"setup"}, shell.Options{Dir: m.root, Env: env})
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to run `make setup`", err)
	}
	if result.ExitCode != 0 {
		message := fmt.Sprintf("`make setup` failed with exit code %d", result.ExitCode)
		if stderr := lastLine(result.Stderr); stderr != "" {
			message = fmt.Sprintf("%s: %s", message, stderr)
		}
		return model.NewCLIError(model.ExitGeneralError, message)
	}
	return nil
}

// echo writes a progress message unless quiet is set.
func (m *Manager) echo(quiet bool, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(m.out, format+"\n", args...)
}

// lastLine returns the final non-empty line of s, which for tool output
// is usually the actual error.
func lastLine(s string) string {
	var last string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			last = trimmed
		}
	}
	return last
}
