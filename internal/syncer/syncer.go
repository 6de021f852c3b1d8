package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
	"github.com/rizzk/vaultsync/internal/git"
	"github.com/rizzk/vaultsync/internal/logger"
	"github.com/rizzk/vaultsync/internal/retention"
	"github.com/rizzk/vaultsync/internal/watch"
)

// Commit messages used for snapshots
const (
	MessageSnapshot  = "chore(sync): vault snapshot"
	MessageHeartbeat = "chore(sync): heartbeat snapshot"
)

// mtimeSlack widens each change query below the last snapshot. Mtimes come
// from a coarse clock, so a file written just after a snapshot may carry an
// mtime at or before it.
const mtimeSlack = 2 * time.Second

// Config controls a Syncer
type Config struct {
	// ExportsDir is pruned to MaxExports before every snapshot
	ExportsDir string
	MaxExports int

	// Settle is how long the newest change must age before committing
	Settle time.Duration

	// PollInterval is the tick period
	PollInterval time.Duration

	// Heartbeat forces a snapshot attempt this often. Zero disables it.
	Heartbeat time.Duration

	// Push sends each new commit to the remote
	Push bool

	// MaxRetries is how many identical consecutive errors are tolerated.
	// Zero retries forever.
	MaxRetries int
}

// Validate sanity-checks the config
func (c Config) Validate() error {
	switch {
	case c.ExportsDir == "":
		return vsErrors.NewConfigError("exports", c.ExportsDir,
			vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, "exports directory must not be empty"))
	case c.MaxExports < 0:
		return vsErrors.NewConfigError("max-exports", c.MaxExports,
			vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, "must not be negative"))
	case c.Settle < 0:
		return vsErrors.NewConfigError("settle", c.Settle,
			vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, "must not be negative"))
	case c.PollInterval <= 0:
		return vsErrors.NewConfigError("poll-interval", c.PollInterval,
			vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, "must be positive"))
	case c.Heartbeat < 0:
		return vsErrors.NewConfigError("heartbeat", c.Heartbeat,
			vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, "must not be negative"))
	case c.MaxRetries < 0:
		return vsErrors.NewConfigError("max-retries", c.MaxRetries,
			vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, "must not be negative"))
	}
	return nil
}

// Repository is the subset of git.Repo the loop needs
type Repository interface {
	Snapshot(ctx context.Context, message string, push bool) (git.SnapshotResult, error)
	Push(ctx context.Context) error
}

// Stats counts what a session did
type Stats struct {
	Commits      int
	Pushes       int
	Pruned       int
	PendingPush  bool
	LastSnapshot time.Time
}

type errorState struct {
	consecutiveErrors int
	lastErrorMsg      string
}

// Syncer watches a vault and snapshots it into git
type Syncer struct {
	config   Config
	logger   logger.Logger
	repo     Repository
	detector watch.Detector
	fs       afero.Fs
	now      func() time.Time

	startTime    time.Time
	lastSnapshot time.Time
	lastChange   time.Time
	dirty        bool
	pendingPush  bool

	commits int
	pushes  int
	pruned  int
}

// New creates a Syncer. fs is used for export retention.
func New(config Config, log logger.Logger, repo Repository, detector watch.Detector, fs afero.Fs) (*Syncer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Syncer{
		config:   config,
		logger:   log,
		repo:     repo,
		detector: detector,
		fs:       fs,
		now:      time.Now,
	}, nil
}

// Stats returns the session counters
func (s *Syncer) Stats() Stats {
	return Stats{
		Commits:      s.commits,
		Pushes:       s.pushes,
		Pruned:       s.pruned,
		PendingPush:  s.pendingPush,
		LastSnapshot: s.lastSnapshot,
	}
}

// Run ticks until ctx is cancelled or MaxRetries is exceeded. A tick in
// progress completes before cancellation is observed.
func (s *Syncer) Run(ctx context.Context) error {
	s.startTime = s.now()
	s.displayStartupInfo()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	var state errorState
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Received cancellation signal, shutting down gracefully...")
			return ctx.Err()

		case <-ticker.C:
			if err := s.tryOperation(&state, func() error { return s.Tick(ctx) }); err != nil {
				return err
			}
		}
	}
}

// tryOperation runs operation and tracks identical consecutive errors.
// It returns an error only when MaxRetries is set and exceeded.
func (s *Syncer) tryOperation(state *errorState, operation func() error) error {
	err := operation()
	if err == nil {
		state.consecutiveErrors = 0
		state.lastErrorMsg = ""
		return nil
	}

	s.logger.Error("Error in sync tick: %v", err)
	s.logger.WarningToUser("Error occurred: %v", err)

	msg := err.Error()
	if msg == state.lastErrorMsg {
		state.consecutiveErrors++
	} else {
		state.consecutiveErrors = 1
		state.lastErrorMsg = msg
	}

	// '>' so that MaxRetries = 1 allows one retry
	if s.config.MaxRetries > 0 && state.consecutiveErrors > s.config.MaxRetries {
		s.logger.Error("Reached maximum number of consecutive errors (%d). Stopping vaultsync.", s.config.MaxRetries)
		s.logger.WarningToUser("Too many consecutive errors (same error %d times in a row). Stopping vaultsync.", state.consecutiveErrors)
		return vsErrors.Wrap(vsErrors.ErrGitOperationFailed,
			fmt.Sprintf("maximum retries (%d) exceeded with error: %v", s.config.MaxRetries, err))
	}
	return nil
}

// Tick runs one iteration of the loop
func (s *Syncer) Tick(ctx context.Context) error {
	latest, changed, err := s.detector.LatestChange(ctx, s.lastSnapshot.Add(-mtimeSlack))
	if err != nil {
		return vsErrors.Wrap(err, "failed to scan for changes")
	}
	if changed {
		if latest.After(s.lastChange) {
			s.lastChange = latest
		}
		if !s.dirty {
			s.logger.Info("Change detected at %s", latest.Format(time.RFC3339))
		}
		s.dirty = true
	}

	now := s.now()
	settled := s.dirty && now.Sub(s.lastChange) >= s.config.Settle
	heartbeat := s.config.Heartbeat > 0 && now.Sub(s.lastSnapshot) >= s.config.Heartbeat

	switch {
	case settled:
		return s.snapshot(ctx, MessageSnapshot)
	case heartbeat:
		return s.snapshot(ctx, MessageHeartbeat)
	case s.pendingPush:
		return s.retryPush(ctx)
	}
	return nil
}

// housekeeping trims the exports folder. Failures are logged only.
func (s *Syncer) housekeeping() {
	removed, err := retention.Prune(s.fs, s.config.ExportsDir, s.config.MaxExports)
	s.pruned += len(removed)
	if len(removed) > 0 {
		s.logger.Info("Pruned %d old exports from %s", len(removed), s.config.ExportsDir)
	}
	if err != nil {
		s.logger.Warning("Export housekeeping failed: %v", err)
	}
}

// snapshot commits and pushes. Git runs detached from ctx cancellation so
// a shutdown never kills a commit halfway.
func (s *Syncer) snapshot(ctx context.Context, message string) error {
	ctx = context.WithoutCancel(ctx)
	s.housekeeping()

	mark := s.now()
	result, err := s.repo.Snapshot(ctx, message, s.config.Push)
	if result.Committed {
		s.commits++
		s.logger.Success("%s at %s", message, mark.Format("15:04:05"))
	}
	if result.Pushed {
		s.pushes++
		s.pendingPush = false
	}

	if err != nil {
		if !result.Committed {
			// stage or commit failed; retry the same changes next tick
			return err
		}
		s.pendingPush = true
		s.advance(mark)
		return vsErrors.Wrap(err, "commit kept locally, push will be retried")
	}

	s.advance(mark)
	if !result.Committed && s.pendingPush {
		return s.retryPush(ctx)
	}
	return nil
}

func (s *Syncer) advance(mark time.Time) {
	s.lastSnapshot = mark
	s.dirty = false
}

func (s *Syncer) retryPush(ctx context.Context) error {
	if !s.config.Push {
		s.pendingPush = false
		return nil
	}
	if err := s.repo.Push(context.WithoutCancel(ctx)); err != nil {
		return vsErrors.Wrap(err, "pending push failed")
	}
	s.pushes++
	s.pendingPush = false
	s.logger.Success("Pending push delivered")
	return nil
}

// displayStartupInfo outputs the active configuration to the user
func (s *Syncer) displayStartupInfo() {
	s.logger.StatusMessage("🔄 vaultsync started at %s", s.startTime.Format("2006-01-02 15:04:05"))
	s.logger.StatusMessage("📂 Exports: %s (keeping newest %d)", s.config.ExportsDir, s.config.MaxExports)
	s.logger.StatusMessage("⏱️ Poll: %s, settle: %s", s.config.PollInterval, s.config.Settle)
	if s.config.Heartbeat > 0 {
		s.logger.StatusMessage("💓 Heartbeat: %s", s.config.Heartbeat)
	}
	s.logger.StatusMessage("📤 Push: %t", s.config.Push)
	s.logger.StatusMessage("❓ Press Ctrl+C to stop and view session summary")
}

// PrintSummary prints a summary of the sync session
func (s *Syncer) PrintSummary() {
	duration := s.now().Sub(s.startTime)
	if s.startTime.IsZero() {
		duration = 0
	}
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60

	s.logger.StatusMessage("")
	s.logger.StatusMessage("---------------------------------------------")
	s.logger.StatusMessage("📊 vaultsync Session Summary")
	s.logger.StatusMessage("---------------------------------------------")
	s.logger.StatusMessage("✅ Snapshots committed: %d", s.commits)
	s.logger.StatusMessage("📤 Pushes: %d", s.pushes)
	s.logger.StatusMessage("🧹 Exports pruned: %d", s.pruned)
	s.logger.StatusMessage("⏱️  Session duration: %dh %dm %ds", hours, minutes, seconds)
	if s.pendingPush {
		s.logger.WarningToUser("A commit is still waiting to be pushed; run `git push` when the remote is reachable.")
	}
	s.logger.StatusMessage("---------------------------------------------")
	s.logger.StatusMessage("🛑 vaultsync terminated at %s", s.now().Format("2006-01-02 15:04:05"))
}
