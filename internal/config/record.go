package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// RecordFileName is the name of the per-workspace config record.
const RecordFileName = "config.yaml"

// Record is the metadata stored inside each workspace directory.
//
// Branch and Base are written by sprig at creation time. Agent, Notes,
// Paths, and EnvFile are freeform fields meant for the operator (or the
// agent working in the workspace) and are scaffolded empty.
type Record struct {
	// Name is the workspace name (the directory name under .workspaces/).
	Name string `yaml:"name"`

	// Branch is the git branch the worktree is checked out on.
	Branch string `yaml:"branch"`

	// Base is the branch the workspace was created from.
	Base string `yaml:"base,omitempty"`

	// Created is the creation timestamp in UTC.
	Created time.Time `yaml:"created,omitempty"`

	// Agent identifies who or what works in this workspace.
	Agent string `yaml:"agent"`

	// Notes holds freeform human notes about the workspace.
	Notes string `yaml:"notes"`

	// Paths optionally restricts which repository paths the workspace
	// is meant to touch.
	Paths []string `yaml:"paths"`

	// EnvFile optionally names an env file to load for the workspace.
	EnvFile string `yaml:"env_file"`
}

// recordHeader is written above the YAML document so the file is
// self-describing when opened by hand.
const recordHeader = "# sprig workspace config\n"

// WriteRecord writes the record to <dir>/config.yaml.
//
// An existing record is left untouched: the record is written once at
// workspace creation, and a re-run with --force must not clobber notes a
// human may have added since.
func WriteRecord(dir string, rec Record) error {
	path := filepath.Join(dir, RecordFileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace record: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(recordHeader), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadRecord reads and parses <dir>/config.yaml.
func ReadRecord(dir string) (Record, error) {
	path := filepath.Join(dir, RecordFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rec, nil
}
