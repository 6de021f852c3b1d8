package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

// CommandExecutor defines an interface for executing commands
type CommandExecutor interface {
	// Execute runs a command and returns an error on non-zero exit
	Execute(ctx context.Context, cmd *exec.Cmd) error

	// ExecuteWithOutput runs a command and returns its stdout
	ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error)

	// ExecuteWithContext builds and runs a command bound to ctx
	ExecuteWithContext(ctx context.Context, name string, args ...string) error

	// ExecuteWithContextAndOutput builds and runs a command bound to ctx
	// and returns its stdout
	ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error)
}

// ExecExecutor is the CommandExecutor backed by os/exec
type ExecExecutor struct{}

// NewExecExecutor creates a new ExecExecutor
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// Execute implements CommandExecutor.Execute
func (e *ExecExecutor) Execute(ctx context.Context, cmd *exec.Cmd) error {
	var stderr bytes.Buffer
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}
	if err := cmd.Run(); err != nil {
		return commandError(cmd, err, stderr.String())
	}
	return nil
}

// ExecuteWithOutput implements CommandExecutor.ExecuteWithOutput
func (e *ExecExecutor) ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError(cmd, err, stderr.String())
	}
	return stdout.String(), nil
}

// ExecuteWithContext implements CommandExecutor.ExecuteWithContext
func (e *ExecExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	return e.Execute(ctx, exec.CommandContext(ctx, name, args...))
}

// ExecuteWithContextAndOutput implements CommandExecutor.ExecuteWithContextAndOutput
func (e *ExecExecutor) ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error) {
	return e.ExecuteWithOutput(ctx, exec.CommandContext(ctx, name, args...))
}

// commandError wraps a failed command so callers can match both
// ErrGitOperationFailed and the *exec.ExitError underneath.
func commandError(cmd *exec.Cmd, err error, output string) error {
	operation, args := splitCommand(cmd.Args)

	return vsErrors.NewGitError(operation, args,
		fmt.Errorf("%w: %w", vsErrors.ErrGitOperationFailed, err), output)
}

// splitCommand picks the git subcommand out of argv, skipping the
// leading "git -C <repo>".
func splitCommand(argv []string) (string, []string) {
	if len(argv) == 0 {
		return "", nil
	}
	rest := argv[1:]
	if len(rest) >= 2 && rest[0] == "-C" {
		rest = rest[2:]
	}
	if len(rest) == 0 {
		return argv[0], nil
	}
	return rest[0], rest[1:]
}
