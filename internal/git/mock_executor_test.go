package git

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// MockCommandExecutor records git invocations and answers them through
// an optional hook keyed on the subcommand.
type MockCommandExecutor struct {
	mu       sync.Mutex
	Commands [][]string

	// Respond returns the stdout and error for a subcommand. Nil means
	// every command succeeds with empty output.
	Respond func(subcommand string, args []string) (string, error)
}

func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{}
}

func (m *MockCommandExecutor) Execute(ctx context.Context, cmd *exec.Cmd) error {
	_, err := m.handle(cmd.Args)
	return err
}

func (m *MockCommandExecutor) ExecuteWithOutput(ctx context.Context, cmd *exec.Cmd) (string, error) {
	return m.handle(cmd.Args)
}

func (m *MockCommandExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	_, err := m.handle(append([]string{name}, args...))
	return err
}

func (m *MockCommandExecutor) ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error) {
	return m.handle(append([]string{name}, args...))
}

func (m *MockCommandExecutor) handle(argv []string) (string, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, argv)
	m.mu.Unlock()

	sub, rest := splitCommand(argv)
	if m.Respond == nil {
		return "", nil
	}
	return m.Respond(sub, rest)
}

// Subcommands returns the recorded subcommands joined with their args
func (m *MockCommandExecutor) Subcommands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.Commands))
	for _, argv := range m.Commands {
		sub, rest := splitCommand(argv)
		out = append(out, strings.TrimSpace(sub+" "+strings.Join(rest, " ")))
	}
	return out
}

// exitError produces a genuine *exec.ExitError with the given status
func exitError(code int) error {
	cmd := exec.Command("sh", "-c", "exit "+strconv.Itoa(code))
	err := cmd.Run()
	return commandError(exec.Command("git", "-C", "/repo", "diff"), err, "")
}
