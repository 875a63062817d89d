package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/koaning/sprig/internal/config"
)

// scaffold writes the config record and a short README into a freshly
// created workspace directory. Both are written only when absent so a
// force-recreated worktree keeps any notes the operator left behind.
func scaffold(dir string, rec config.Record) error {
	if err := config.WriteRecord(dir, rec); err != nil {
		return err
	}

	readme := filepath.Join(dir, "README.md")
	if _, err := os.Stat(readme); err == nil {
		return nil
	}

	content := fmt.Sprintf("# Workspace `%s`\n\nThis directory is meant for agent-driven changes. Keep human notes in `%s`.\n",
		rec.Name, config.RecordFileName)
	if err := os.WriteFile(readme, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write workspace README: %w", err)
	}
	return nil
}
