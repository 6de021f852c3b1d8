package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/rizzk/vaultsync/internal/config"
	"github.com/rizzk/vaultsync/internal/logger"
)

// MockSyncer implements Syncer for testing
type MockSyncer struct {
	SummaryCalled bool
	RunCalled     bool
	RunErr        error
}

func (m *MockSyncer) PrintSummary() {
	m.SummaryCalled = true
}

func (m *MockSyncer) Run(ctx context.Context) error {
	m.RunCalled = true
	return m.RunErr
}

// MockLocker implements Locker for testing
type MockLocker struct {
	AcquireErr    error
	ReleaseErr    error
	AcquireCalled bool
	ReleaseCalled bool
}

func (m *MockLocker) Acquire() error {
	m.AcquireCalled = true
	return m.AcquireErr
}

func (m *MockLocker) Release() error {
	m.ReleaseCalled = true
	return m.ReleaseErr
}

// MockCommitter implements Committer for testing
type MockCommitter struct {
	Messages  []string
	Paths     []string
	Committed bool
	CommitErr error
	PushErr   error
	Pushes    int
}

func (m *MockCommitter) CommitPaths(ctx context.Context, message string, paths ...string) (bool, error) {
	m.Messages = append(m.Messages, message)
	m.Paths = append(m.Paths, paths...)
	return m.Committed, m.CommitErr
}

func (m *MockCommitter) Push(ctx context.Context) error {
	m.Pushes++
	return m.PushErr
}

var testNow = time.Date(2026, 4, 3, 14, 30, 0, 0, time.UTC)

type testApp struct {
	*App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	repo   string
}

// newTestApp builds an App rooted in a temp directory with git checks
// stubbed to succeed
func newTestApp(t *testing.T, opts AppOptions) *testApp {
	t.Helper()

	repo := t.TempDir()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	if opts.Config == nil {
		opts.Config = config.New()
	}
	opts.Config.RepoPath = repo
	if opts.Logger == nil {
		opts.Logger = logger.NewWithOutput(false, "", true, stdout, stderr)
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.ExecLookPath == nil {
		opts.ExecLookPath = func(string) (string, error) { return "/usr/bin/git", nil }
	}
	if opts.IsRepository == nil {
		opts.IsRepository = func(string) (bool, error) { return true, nil }
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	opts.Stdout, opts.Stderr = stdout, stderr
	opts.Exit = func(int) {}

	app := NewApp(opts)
	t.Cleanup(func() { _ = app.Close() })
	return &testApp{App: app, stdout: stdout, stderr: stderr, repo: repo}
}
