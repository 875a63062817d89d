package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/koaning/sprig/internal/model"
)

// Dir is the directory under the repository root that holds all
// workspaces.
const Dir = ".workspaces"

// FindRoot walks up from start looking for a .git entry and returns the
// containing directory. A .git file counts as well as a directory, so a
// worktree's own root is found when called from inside a workspace.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}

	for {
		if _, statErr := os.Lstat(filepath.Join(dir, ".git")); statErr == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", model.NewCLIError(model.ExitNotRepoRoot, "sprig must run inside a git repository")
		}
		dir = parent
	}
}

// DetectWorkspace returns the workspace name when cwd is at or below
// root/.workspaces/<name>, and "" otherwise.
func DetectWorkspace(cwd, root string) string {
	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		return ""
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return ""
	}

	rel, err := filepath.Rel(absRoot, absCwd)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}

	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) >= 2 && parts[0] == Dir {
		return parts[1]
	}
	return ""
}

// EnsureRoot is the precondition check for root-only commands (init, new,
// list, clean): cwd must be inside a repository, not inside a workspace,
// and must be the repository root itself. Returns the root.
func EnsureRoot(cwd string) (string, error) {
	// Look upward from the main checkout, not from inside a workspace:
	// FindRoot from a workspace directory would report the workspace's
	// own worktree root. Walking up still finds the workspace first
	// because its .git file sits closer, which the detect check below
	// turns into a helpful message.
	root, err := FindRoot(cwd)
	if err != nil {
		return "", err
	}

	absCwd, absErr := filepath.Abs(cwd)
	if absErr != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", cwd, absErr)
	}

	// Inside a worktree-backed workspace the nearest .git belongs to the
	// worktree, so the repository root is two levels above
	// .workspaces/<name>. A directory-only workspace has no .git of its
	// own and the walk lands on the repository root itself, so check
	// against that root too.
	insideWorkspace := DetectWorkspace(absCwd, root) != ""
	if parent := filepath.Dir(filepath.Dir(root)); filepath.Base(filepath.Dir(root)) == Dir {
		insideWorkspace = insideWorkspace || DetectWorkspace(absCwd, parent) != ""
	}
	if insideWorkspace {
		return "", model.NewCLIError(model.ExitNotRepoRoot, "run this command from the repo root, not inside a workspace")
	}

	if absCwd != root {
		return "", model.NewCLIError(model.ExitNotRepoRoot, fmt.Sprintf("run this command from the repo root: %s", root))
	}
	return root, nil
}

// EnsureWorkspace is the precondition check for `branch` subcommands: cwd
// must be inside .workspaces/<name>. Returns the repository root and the
// workspace name.
func EnsureWorkspace(cwd string) (root string, name string, err error) {
	wtRoot, err := FindRoot(cwd)
	if err != nil {
		return "", "", err
	}

	// For a workspace, the worktree root is .workspaces/<name> and the
	// repository root is two levels up.
	if filepath.Base(filepath.Dir(wtRoot)) != Dir {
		return "", "", model.NewCLIError(model.ExitNotRepoRoot,
			fmt.Sprintf("this command is only available inside a workspace under %s/", Dir))
	}

	return filepath.Dir(filepath.Dir(wtRoot)), filepath.Base(wtRoot), nil
}
