package git

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
	"github.com/rizzk/vaultsync/internal/logger"
)

func testLogger() logger.Logger {
	return logger.NewWithOutput(false, "", true, io.Discard, io.Discard)
}

func newMockRepo(t *testing.T, cfg RepoConfig, executor *MockCommandExecutor) *Repo {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = "/repo"
	}
	repo, err := NewRepoWithExecutor(cfg, testLogger(), executor)
	require.NoError(t, err)
	return repo
}

func TestNewRepoValidation(t *testing.T) {
	_, err := NewRepoWithExecutor(RepoConfig{}, testLogger(), NewMockCommandExecutor())
	require.Error(t, err)
	assert.True(t, vsErrors.Is(err, vsErrors.ErrInvalidConfiguration))
}

func TestCommitAll(t *testing.T) {
	tests := map[string]struct {
		diffErr       error
		commitErr     error
		wantCommitted bool
		wantErr       bool
		wantCommands  []string
	}{
		"staged changes are committed": {
			diffErr:       exitError(1),
			wantCommitted: true,
			wantCommands:  []string{"add -A", "diff --cached --quiet", "commit -m chore(sync): vault snapshot"},
		},
		"clean index skips commit": {
			wantCommitted: false,
			wantCommands:  []string{"add -A", "diff --cached --quiet"},
		},
		"diff failure is reported": {
			diffErr:      exitError(2),
			wantErr:      true,
			wantCommands: []string{"add -A", "diff --cached --quiet"},
		},
		"commit failure is reported": {
			diffErr:      exitError(1),
			commitErr:    errors.New("hook rejected"),
			wantErr:      true,
			wantCommands: []string{"add -A", "diff --cached --quiet", "commit -m chore(sync): vault snapshot"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			executor := NewMockCommandExecutor()
			executor.Respond = func(sub string, args []string) (string, error) {
				switch sub {
				case "diff":
					return "", tc.diffErr
				case "commit":
					return "", tc.commitErr
				}
				return "", nil
			}
			repo := newMockRepo(t, RepoConfig{}, executor)

			committed, err := repo.CommitAll(context.Background(), "chore(sync): vault snapshot")
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, vsErrors.Is(err, vsErrors.ErrGitOperationFailed))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantCommitted, committed)
			assert.Equal(t, tc.wantCommands, executor.Subcommands())
		})
	}
}

func TestCommitAllStopsWhenStagingFails(t *testing.T) {
	executor := NewMockCommandExecutor()
	executor.Respond = func(sub string, args []string) (string, error) {
		if sub == "add" {
			return "", exitError(1)
		}
		return "", nil
	}
	repo := newMockRepo(t, RepoConfig{}, executor)

	committed, err := repo.CommitAll(context.Background(), "msg")
	require.Error(t, err)
	assert.False(t, committed)
	assert.Equal(t, []string{"add -A"}, executor.Subcommands())
}

func TestCommitPaths(t *testing.T) {
	executor := NewMockCommandExecutor()
	executor.Respond = func(sub string, args []string) (string, error) {
		if sub == "diff" {
			return "", exitError(1)
		}
		return "", nil
	}
	repo := newMockRepo(t, RepoConfig{}, executor)

	committed, err := repo.CommitPaths(context.Background(), "docs: add note.md -> notes/a.md", "/repo/notes/a.md")
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, "add -- /repo/notes/a.md", executor.Subcommands()[0])
}

func TestPushArguments(t *testing.T) {
	tests := map[string]struct {
		cfg  RepoConfig
		want string
	}{
		"upstream":        {cfg: RepoConfig{}, want: "push"},
		"remote only":     {cfg: RepoConfig{Remote: "origin"}, want: "push origin"},
		"remote + branch": {cfg: RepoConfig{Remote: "origin", Branch: "main"}, want: "push origin main"},
		"branch ignored":  {cfg: RepoConfig{Branch: "main"}, want: "push"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			executor := NewMockCommandExecutor()
			repo := newMockRepo(t, tc.cfg, executor)

			require.NoError(t, repo.Push(context.Background()))
			assert.Equal(t, []string{tc.want}, executor.Subcommands())
		})
	}
}

func TestPushFailure(t *testing.T) {
	executor := NewMockCommandExecutor()
	executor.Respond = func(sub string, args []string) (string, error) {
		return "", exitError(1)
	}
	repo := newMockRepo(t, RepoConfig{Remote: "origin"}, executor)

	err := repo.Push(context.Background())
	require.Error(t, err)

	var gitErr *vsErrors.GitError
	require.True(t, vsErrors.As(err, &gitErr))
	assert.True(t, vsErrors.Is(err, vsErrors.ErrGitOperationFailed))
}

func TestCurrentBranch(t *testing.T) {
	executor := NewMockCommandExecutor()
	executor.Respond = func(sub string, args []string) (string, error) {
		return "main\n", nil
	}
	repo := newMockRepo(t, RepoConfig{}, executor)

	branch, err := repo.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestSplitCommand(t *testing.T) {
	sub, args := splitCommand([]string{"git", "-C", "/repo", "push", "origin"})
	assert.Equal(t, "push", sub)
	assert.Equal(t, []string{"origin"}, args)

	sub, args = splitCommand([]string{"git"})
	assert.Equal(t, "git", sub)
	assert.Nil(t, args)
}

func TestSnapshot(t *testing.T) {
	tests := map[string]struct {
		staged     bool
		push       bool
		pushErr    error
		wantResult SnapshotResult
		wantErr    bool
		wantLast   string
	}{
		"nothing staged": {
			staged:     false,
			push:       true,
			wantResult: SnapshotResult{},
			wantLast:   "diff --cached --quiet",
		},
		"commit without push": {
			staged:     true,
			push:       false,
			wantResult: SnapshotResult{Committed: true},
			wantLast:   "commit -m snap",
		},
		"commit and push": {
			staged:     true,
			push:       true,
			wantResult: SnapshotResult{Committed: true, Pushed: true},
			wantLast:   "push origin main",
		},
		"push failure keeps commit": {
			staged:     true,
			push:       true,
			pushErr:    exitError(1),
			wantResult: SnapshotResult{Committed: true},
			wantErr:    true,
			wantLast:   "push origin main",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			executor := NewMockCommandExecutor()
			executor.Respond = func(sub string, args []string) (string, error) {
				switch sub {
				case "diff":
					if tc.staged {
						return "", exitError(1)
					}
				case "push":
					return "", tc.pushErr
				}
				return "", nil
			}
			repo := newMockRepo(t, RepoConfig{Remote: "origin", Branch: "main"}, executor)

			result, err := repo.Snapshot(context.Background(), "snap", tc.push)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantResult, result)

			cmds := executor.Subcommands()
			require.NotEmpty(t, cmds)
			assert.Equal(t, tc.wantLast, cmds[len(cmds)-1])
		})
	}
}
