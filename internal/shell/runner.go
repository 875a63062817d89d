package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result holds the outcome of a command execution.
type Result struct {
	// Stdout is the captured standard output.
	Stdout string

	// Stderr is the captured standard error.
	Stderr string

	// ExitCode is the process exit status. Zero means success.
	ExitCode int
}

// Options holds optional parameters for a command execution.
type Options struct {
	// Dir is the working directory for the command. Empty means the
	// current process working directory.
	Dir string

	// Env is an overlay of extra environment variables applied on top of
	// the current process environment.
	Env map[string]string
}

// Runner is the interface for running external commands.
//
// Run returns a Result with ExitCode set whenever the process actually ran,
// even if it exited non-zero. An error is returned only when the command
// could not be executed at all (binary not found, context cancelled).
// Interpreting non-zero exit codes is left to the caller, which knows what
// the command was supposed to do.
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts Options) (Result, error)
}

// OSRunner is the production Runner implementation backed by os/exec.
type OSRunner struct {
	log *zap.Logger
}

// NewOSRunner creates an OSRunner that logs command events to the given
// logger. A nil logger disables logging.
func NewOSRunner(log *zap.Logger) *OSRunner {
	if log == nil {
		log = zap.NewNop()
	}
	return &OSRunner{log: log}
}

// Run executes the command and captures stdout and stderr.
func (r *OSRunner) Run(ctx context.Context, name string, args []string, opts Options) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// The process never ran: binary missing, context cancelled,
			// or an I/O failure wiring up the pipes.
			r.log.Debug("command could not run",
				zap.String("command", name),
				zap.Strings("args", args),
				zap.String("dir", opts.Dir),
				zap.Error(runErr))
			return Result{}, runErr
		}
		result.ExitCode = exitErr.ExitCode()
	}

	r.log.Debug("command finished",
		zap.String("command", name+" "+strings.Join(args, " ")),
		zap.String("dir", opts.Dir),
		zap.Int("exit", result.ExitCode),
		zap.Duration("duration", elapsed))

	return result, nil
}
