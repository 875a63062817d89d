// Package config handles the two configuration surfaces of sprig.
//
// The per-workspace record (config.yaml inside each workspace directory)
// stores the branch the worktree was created on, the branch it was cut
// from, and freeform operator notes. It is written once at creation and
// read thereafter; each workspace is single-owner so there is no
// concurrent-writer contention.
//
// Settings are process-wide defaults resolved through viper: environment
// variables with the AGENT_WS prefix override an optional .sprig.yaml file
// at the repository root, which overrides built-in defaults.
package config
