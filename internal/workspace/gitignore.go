package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreEntry is the line kept in the repository's .gitignore so workspace
// checkouts are never committed to the repository they mirror.
const IgnoreEntry = Dir + "/"

// EnsureIgnoreEntry makes sure the repository's .gitignore contains the
// .workspaces/ entry exactly once. The file is created when absent, the
// entry appended when missing, and nothing is written when it is already
// there — running init or new any number of times leaves one entry.
func EnsureIgnoreEntry(root string) error {
	path := filepath.Join(root, ".gitignore")

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read .gitignore: %w", err)
		}
		if writeErr := os.WriteFile(path, []byte(IgnoreEntry+"\n"), 0o644); writeErr != nil {
			return fmt.Errorf("failed to create .gitignore: %w", writeErr)
		}
		return nil
	}

	if hasIgnoreEntry(string(content)) {
		return nil
	}

	updated := string(content)
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += IgnoreEntry + "\n"

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to update .gitignore: %w", err)
	}
	return nil
}

// hasIgnoreEntry checks for the .workspaces entry, treating the forms with
// and without the trailing slash as equivalent since git does.
func hasIgnoreEntry(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == IgnoreEntry || trimmed == Dir {
			return true
		}
	}
	return false
}
