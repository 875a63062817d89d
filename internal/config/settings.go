package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for all sprig environment variables
	// (AGENT_WS_BRANCH, AGENT_WS_SKIP_SETUP, AGENT_WS_SKIP_GIT).
	EnvPrefix = "AGENT_WS"

	// SettingsFileName is the optional repo-root settings file,
	// .sprig.yaml, looked up relative to the repository root.
	SettingsFileName = ".sprig"

	// DefaultBranch is the branch pulled before creating a workspace
	// when neither a flag nor an environment variable names one.
	DefaultBranch = "main"

	// DefaultWorkspaceBranchPrefix is prepended to the workspace name to
	// form the worktree branch (workspace/<name>).
	DefaultWorkspaceBranchPrefix = "workspace/"
)

// Settings are the process-wide defaults for workspace creation, resolved
// from (highest precedence first) AGENT_WS_* environment variables, an
// optional .sprig.yaml at the repository root, and built-in defaults.
// Command-line flags override all of these at the call site.
type Settings struct {
	// Branch is the default upstream branch to fetch and base new
	// workspaces on.
	Branch string

	// WorkspaceBranchPrefix is prepended to workspace names to derive
	// worktree branch names.
	WorkspaceBranchPrefix string

	// SkipSetup skips the `make setup` step after creation.
	SkipSetup bool

	// SkipGit bypasses all git calls during creation. This is a
	// test-only escape hatch (offline CI); it is not supported for
	// production use.
	SkipGit bool
}

// LoadSettings resolves Settings for the repository rooted at root.
// A missing .sprig.yaml is not an error; malformed YAML is.
func LoadSettings(root string) (Settings, error) {
	v := viper.New()
	v.SetConfigName(SettingsFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(root)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("branch", DefaultBranch)
	v.SetDefault("workspace_branch_prefix", DefaultWorkspaceBranchPrefix)
	v.SetDefault("skip_setup", "")
	v.SetDefault("skip_git", "")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Settings{}, fmt.Errorf("failed to read %s.yaml: %w", SettingsFileName, err)
		}
	}

	// The skip toggles go through Truthy rather than viper's GetBool so
	// that "yes" and "on" count, matching the documented env contract.
	return Settings{
		Branch:                v.GetString("branch"),
		WorkspaceBranchPrefix: v.GetString("workspace_branch_prefix"),
		SkipSetup:             Truthy(v.GetString("skip_setup")),
		SkipGit:               Truthy(v.GetString("skip_git")),
	}, nil
}

// Truthy reports whether an environment-style string value means "on".
// Accepted values are 1, true, yes, and on, case-insensitive.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
