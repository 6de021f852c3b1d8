package git

import (
	"context"
	"os/exec"
	"strings"

	gogit "github.com/go-git/go-git/v5"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
	"github.com/rizzk/vaultsync/internal/logger"
)

// RepoConfig contains the settings for a Repo
type RepoConfig struct {
	// Path is the working tree root. Required.
	Path string

	// Remote is the push target. Empty pushes to the branch's upstream.
	Remote string

	// Branch is pushed to Remote. Ignored when Remote is empty; empty
	// pushes the current branch.
	Branch string
}

// Validate checks that required fields are set
func (c RepoConfig) Validate() error {
	if c.Path == "" {
		return vsErrors.NewConfigError("repo", nil,
			vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, "repository path must not be empty"))
	}
	return nil
}

// Repo runs git commands against one working tree
type Repo struct {
	config   RepoConfig
	logger   logger.Logger
	executor CommandExecutor
}

// NewRepo creates a Repo that shells out to the git binary
func NewRepo(config RepoConfig, logger logger.Logger) (*Repo, error) {
	return NewRepoWithExecutor(config, logger, NewExecExecutor())
}

// NewRepoWithExecutor creates a Repo with a custom executor
func NewRepoWithExecutor(config RepoConfig, logger logger.Logger, executor CommandExecutor) (*Repo, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Repo{
		config:   config,
		logger:   logger,
		executor: executor,
	}, nil
}

// Path returns the working tree root
func (r *Repo) Path() string {
	return r.config.Path
}

// IsRepository reports whether path is inside a git working tree.
// A missing repository is (false, nil); any other failure is returned.
func IsRepository(path string) (bool, error) {
	_, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		return true, nil
	}
	if vsErrors.Is(err, gogit.ErrRepositoryNotExists) {
		return false, nil
	}
	return false, err
}

// StageAll stages every change in the working tree, deletions included
func (r *Repo) StageAll(ctx context.Context) error {
	if err := r.run(ctx, "add", "-A"); err != nil {
		return r.wrap(err, "add", []string{"-A"}, "failed to stage changes")
	}
	return nil
}

// StagePaths stages the given paths only
func (r *Repo) StagePaths(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	if err := r.run(ctx, args...); err != nil {
		return r.wrap(err, "add", paths, "failed to stage paths")
	}
	return nil
}

// HasStagedChanges reports whether the index differs from HEAD
func (r *Repo) HasStagedChanges(ctx context.Context) (bool, error) {
	err := r.run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}

	// --quiet exits 1 when there are differences
	if exitCode(err) == 1 {
		return true, nil
	}
	return false, r.wrap(err, "diff", []string{"--cached", "--quiet"}, "failed to inspect the index")
}

// HasUncommittedChanges reports whether the working tree or index is dirty
func (r *Repo) HasUncommittedChanges(ctx context.Context) (bool, error) {
	output, err := r.output(ctx, "status", "--porcelain")
	if err != nil {
		return false, r.wrap(err, "status", []string{"--porcelain"}, "failed to check git status")
	}
	return strings.TrimSpace(output) != "", nil
}

// Commit records the index with message
func (r *Repo) Commit(ctx context.Context, message string) error {
	if err := r.run(ctx, "commit", "-m", message); err != nil {
		return r.wrap(err, "commit", []string{"-m", message}, "failed to create commit")
	}
	return nil
}

// CommitAll stages everything and commits it. It returns false without
// committing when nothing is staged.
func (r *Repo) CommitAll(ctx context.Context, message string) (bool, error) {
	if err := r.StageAll(ctx); err != nil {
		return false, err
	}
	return r.commitIfStaged(ctx, message)
}

// CommitPaths stages paths and commits them if anything changed
func (r *Repo) CommitPaths(ctx context.Context, message string, paths ...string) (bool, error) {
	if err := r.StagePaths(ctx, paths...); err != nil {
		return false, err
	}
	return r.commitIfStaged(ctx, message)
}

func (r *Repo) commitIfStaged(ctx context.Context, message string) (bool, error) {
	staged, err := r.HasStagedChanges(ctx)
	if err != nil {
		return false, err
	}
	if !staged {
		r.logger.Info("Nothing staged; skipping commit %q", message)
		return false, nil
	}

	if err := r.Commit(ctx, message); err != nil {
		return false, err
	}
	r.logger.Info("Committed: %s", message)
	return true, nil
}

// SnapshotResult reports what a Snapshot did
type SnapshotResult struct {
	Committed bool
	Pushed    bool
}

// Snapshot stages the whole tree, commits it when something is staged and,
// if push is set, pushes the new commit. A push failure is returned along
// with Committed set; the local commit is kept.
func (r *Repo) Snapshot(ctx context.Context, message string, push bool) (SnapshotResult, error) {
	var result SnapshotResult

	committed, err := r.CommitAll(ctx, message)
	if err != nil {
		return result, err
	}
	result.Committed = committed

	if !committed || !push {
		return result, nil
	}

	if err := r.Push(ctx); err != nil {
		return result, err
	}
	result.Pushed = true
	return result, nil
}

// Push sends local commits to the configured remote
func (r *Repo) Push(ctx context.Context) error {
	args := []string{"push"}
	if r.config.Remote != "" {
		args = append(args, r.config.Remote)
		if r.config.Branch != "" {
			args = append(args, r.config.Branch)
		}
	}

	if err := r.run(ctx, args...); err != nil {
		return r.wrap(err, "push", args[1:], "failed to push")
	}
	r.logger.Info("Pushed to %s", r.pushTarget())
	return nil
}

func (r *Repo) pushTarget() string {
	if r.config.Remote == "" {
		return "upstream"
	}
	if r.config.Branch == "" {
		return r.config.Remote
	}
	return r.config.Remote + "/" + r.config.Branch
}

// CurrentBranch returns the checked out branch name
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.output(ctx, "branch", "--show-current")
	if err != nil {
		return "unknown", r.wrap(err, "branch", []string{"--show-current"}, "failed to get current branch")
	}
	return strings.TrimSpace(output), nil
}

// run executes a git command in the repository directory
func (r *Repo) run(ctx context.Context, args ...string) error {
	allArgs := append([]string{"-C", r.config.Path}, args...)
	return r.executor.ExecuteWithContext(ctx, "git", allArgs...)
}

// output executes a git command and returns its stdout
func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	allArgs := append([]string{"-C", r.config.Path}, args...)
	return r.executor.ExecuteWithContextAndOutput(ctx, "git", allArgs...)
}

// wrap leaves executor errors alone and turns anything else into a GitError
func (r *Repo) wrap(err error, operation string, args []string, message string) error {
	if vsErrors.Is(err, vsErrors.ErrGitOperationFailed) {
		return err
	}
	return vsErrors.NewGitError(operation, args,
		vsErrors.Wrap(vsErrors.ErrGitOperationFailed, vsErrors.Wrap(err, message).Error()), "")
}

// exitCode extracts the process exit status from err, or -1
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if vsErrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
