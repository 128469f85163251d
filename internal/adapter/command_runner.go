package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// CommandResult holds the captured output of a one-shot command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner abstracts one-shot external tool execution.
type CommandRunner interface {
	// Run executes argv and waits for it. A non-zero exit status is reported
	// through CommandResult.ExitCode, not as an error; the error is reserved
	// for commands that could not be run at all.
	Run(ctx context.Context, argv []string) (CommandResult, error)
}

// LocalCommandRunner runs commands on the host via os/exec.
type LocalCommandRunner struct {
	timeout time.Duration
}

// NewLocalCommandRunner constructs a LocalCommandRunner. A zero timeout
// disables the per-command deadline.
func NewLocalCommandRunner(timeout time.Duration) *LocalCommandRunner {
	return &LocalCommandRunner{timeout: timeout}
}

// Run executes argv capturing stdout and stderr separately.
func (a *LocalCommandRunner) Run(ctx context.Context, argv []string) (CommandResult, error) {
	if len(argv) == 0 {
		return CommandResult{}, errors.New("empty argv")
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	// #nosec G204 -- argv comes from harness configuration.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		slog.Debug("command exited non-zero", "argv", argv, "code", result.ExitCode)

		return result, nil
	}

	if err != nil {
		slog.Error("command failed to run", "argv", argv, "error", err)
		return result, fmt.Errorf("run %q: %w", argv, err)
	}

	return result, nil
}
