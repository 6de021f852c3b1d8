package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/rizzk/vaultsync/internal/backup"
	"github.com/rizzk/vaultsync/internal/config"
	vsErrors "github.com/rizzk/vaultsync/internal/errors"
	"github.com/rizzk/vaultsync/internal/git"
	"github.com/rizzk/vaultsync/internal/journal"
	"github.com/rizzk/vaultsync/internal/lock"
	"github.com/rizzk/vaultsync/internal/logger"
	"github.com/rizzk/vaultsync/internal/notes"
	"github.com/rizzk/vaultsync/internal/retention"
	"github.com/rizzk/vaultsync/internal/risk"
	"github.com/rizzk/vaultsync/internal/syncer"
	"github.com/rizzk/vaultsync/internal/watch"
)

// Syncer runs the change-settle-commit loop
type Syncer interface {
	PrintSummary()
	Run(ctx context.Context) error
}

// Locker manages file locking
type Locker interface {
	Acquire() error
	Release() error
}

// Committer records rendered notes in git
type Committer interface {
	CommitPaths(ctx context.Context, message string, paths ...string) (bool, error)
	Push(ctx context.Context) error
}

// AppOptions contains app configuration and dependencies.
// Nil optional fields are replaced with defaults in NewApp or Initialize.
type AppOptions struct {
	// Config is required.
	Config *config.Config

	// Optional components
	Logger    logger.Logger
	Locker    Locker
	Syncer    Syncer
	Committer Committer

	// Fs backs every file the tools read or write.
	Fs afero.Fs

	// I/O dependencies
	Stdout io.Writer
	Stderr io.Writer

	// System dependencies
	Exit         func(code int)
	ExecLookPath func(file string) (string, error)
	IsRepository func(string) (bool, error)
	Now          func() time.Time
}

// App is the vaultsync application. It owns the configuration and the
// long-lived resources each subcommand needs.
type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Locker    Locker
	Syncer    Syncer
	Committer Committer

	Stdout io.Writer
	Stderr io.Writer

	fs           afero.Fs
	exit         func(code int)
	execLookPath func(file string) (string, error)
	isRepository func(string) (bool, error)
	now          func() time.Time

	initialized bool
	syncStarted bool
	closers     []io.Closer
}

// NewDefaultApp creates an App with standard dependencies and the
// environment already applied to its config.
func NewDefaultApp(versionInfo config.VersionInfo) *App {
	cfg := config.New()
	cfg.VersionInfo = versionInfo
	cfg.LoadFromEnvironment()

	return NewApp(AppOptions{
		Config:       cfg,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Exit:         os.Exit,
		ExecLookPath: exec.LookPath,
		IsRepository: git.IsRepository,
	})
}

// NewApp creates an App from opts. It panics if opts.Config is nil.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:       opts.Config,
		Logger:       opts.Logger,
		Locker:       opts.Locker,
		Syncer:       opts.Syncer,
		Committer:    opts.Committer,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		fs:           opts.Fs,
		exit:         opts.Exit,
		execLookPath: opts.ExecLookPath,
		isRepository: opts.IsRepository,
		now:          opts.Now,
	}

	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.fs == nil {
		app.fs = afero.NewOsFs()
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}
	if app.isRepository == nil {
		app.isRepository = git.IsRepository
	}
	if app.now == nil {
		app.now = time.Now
	}

	return app
}

// Prepare layers the config file under the environment and any explicit
// flags, then initializes the app.
func (a *App) Prepare(explicit func(flag string) bool) error {
	if a.Config.ConfigFile != "" {
		if err := a.Config.LoadFile(a.Config.ConfigFile, explicit); err != nil {
			return err
		}
	}
	return a.Initialize()
}

// Initialize finalizes the config and creates the logger. It is safe to
// call more than once.
func (a *App) Initialize() error {
	if a.initialized {
		return nil
	}

	if err := a.Config.Finalize(); err != nil {
		if vsErrors.Is(err, vsErrors.ErrInvalidConfiguration) {
			return err
		}
		return vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, err.Error())
	}

	if a.Logger == nil {
		a.Logger = logger.NewWithOutput(a.Config.Debug, a.Config.LogFile, !a.Config.Quiet, a.Stdout, a.Stderr)
	}

	a.initialized = true
	return nil
}

// checkRequiredCommands verifies git is available in PATH
func (a *App) checkRequiredCommands() error {
	if _, err := a.execLookPath("git"); err != nil {
		return fmt.Errorf("git is not found in PATH")
	}
	return nil
}

// verifyRepository fails unless the configured path is a git repository
func (a *App) verifyRepository() error {
	if err := a.checkRequiredCommands(); err != nil {
		return err
	}

	isRepo, err := a.isRepository(a.Config.RepoPath)
	if err != nil {
		a.Logger.Warning("Failed to check if path is a git repository: %v", err)
		return vsErrors.Wrap(vsErrors.ErrGitOperationFailed, err.Error())
	}
	if !isRepo {
		return vsErrors.ErrNotGitRepository
	}
	a.Logger.Info("Git repository verified")
	return nil
}

func (a *App) repoConfig() git.RepoConfig {
	return git.RepoConfig{
		Path:   a.Config.RepoPath,
		Remote: a.Config.Remote,
		Branch: a.Config.Branch,
	}
}

// RunSync holds the repository lock and runs the sync loop until ctx is
// cancelled.
func (a *App) RunSync(ctx context.Context) error {
	if err := a.Initialize(); err != nil {
		return err
	}
	if err := a.verifyRepository(); err != nil {
		return err
	}

	if a.Locker == nil {
		locker, err := lock.New(a.Config.RepoPath)
		if err != nil {
			return vsErrors.Wrap(err, "failed to initialize lock")
		}
		a.Locker = locker
	}
	if err := a.Locker.Acquire(); err != nil {
		if vsErrors.Is(err, vsErrors.ErrAlreadyRunning) {
			return err
		}
		return vsErrors.Wrap(vsErrors.ErrLockAcquisitionFailure, err.Error())
	}

	if a.Syncer == nil {
		s, err := a.newSyncer()
		if err != nil {
			return err
		}
		a.Syncer = s
	}

	a.syncStarted = true
	return a.Syncer.Run(ctx)
}

func (a *App) newSyncer() (*syncer.Syncer, error) {
	repo, err := git.NewRepo(a.repoConfig(), a.Logger)
	if err != nil {
		return nil, err
	}

	if ok, _ := afero.DirExists(a.fs, a.Config.VaultDir); !ok {
		a.Logger.WarningToUser("Vault %s does not exist yet; it will be picked up once created", a.Config.VaultDir)
	}

	roots := watchRoots(a.Config.VaultDir, a.Config.ExportsDir)
	var detector watch.Detector
	switch a.Config.WatchMode {
	case config.WatchModeNotify:
		d, err := watch.NewNotifyDetector(a.Logger, roots...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, d)
		detector = d
	default:
		detector = watch.NewPollDetector(a.fs, roots...)
	}
	a.Logger.Info("Watching %s using %s mode", strings.Join(roots, ", "), a.Config.WatchMode)

	return syncer.New(syncer.Config{
		ExportsDir:   a.Config.ExportsDir,
		MaxExports:   a.Config.MaxExports,
		Settle:       a.Config.Settle,
		PollInterval: a.Config.PollInterval,
		Heartbeat:    a.Config.Heartbeat,
		Push:         !a.Config.NoPush,
		MaxRetries:   a.Config.MaxRetries,
	}, a.Logger, repo, detector, a.fs)
}

// watchRoots drops the exports dir when the vault already contains it
func watchRoots(vault, exports string) []string {
	rel, err := filepath.Rel(vault, exports)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return []string{vault}
	}
	return []string{vault, exports}
}

// PrintSummary prints the sync session summary if the loop was started
func (a *App) PrintSummary() {
	if a.syncStarted && a.Syncer != nil {
		a.Syncer.PrintSummary()
	}
}

// TradeRequest is the input of `trade add`
type TradeRequest struct {
	Trade   journal.Trade
	MaxRisk float64
}

// AddTrade validates, stores and exports a trade
func (a *App) AddTrade(ctx context.Context, req TradeRequest) (journal.Trade, string, error) {
	if err := a.Initialize(); err != nil {
		return journal.Trade{}, "", err
	}

	t := req.Trade
	if t.Reward <= 0 && t.Exit > 0 && t.Qty > 0 {
		t.Reward = risk.Exposure(t.Exit, t.Entry, t.Qty)
	}
	if t.Risk <= 0 {
		exposure, err := risk.Validate(t.Entry, t.Stop, t.Qty, req.MaxRisk)
		if err != nil {
			return journal.Trade{}, "", err
		}
		t.Risk = exposure
	}

	store, err := a.openJournal(ctx)
	if err != nil {
		return journal.Trade{}, "", err
	}
	defer a.closeJournal(store)

	saved, err := store.Save(ctx, t)
	if err != nil {
		return journal.Trade{}, "", err
	}

	path, err := journal.Export(a.fs, a.Config.ExportsDir, saved)
	if err != nil {
		return saved, "", err
	}

	a.Logger.Success("Added trade %s -> %s", saved.ID, a.relative(path))
	return saved, path, nil
}

// ListTrades prints the most recent trades
func (a *App) ListTrades(ctx context.Context, limit int) error {
	if err := a.Initialize(); err != nil {
		return err
	}

	store, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer a.closeJournal(store)

	trades, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		a.Logger.InfoToUser("No trades logged yet.")
		return nil
	}
	return writeTradeTable(a.Stdout, trades)
}

// InitDB creates the journal database and schema
func (a *App) InitDB(ctx context.Context) error {
	if err := a.Initialize(); err != nil {
		return err
	}

	store, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	a.closeJournal(store)

	a.Logger.Success("Journal ready: %s", store.Path())
	return nil
}

func (a *App) openJournal(ctx context.Context) (*journal.Store, error) {
	return journal.Open(ctx, a.Config.DBPath, a.Logger)
}

func (a *App) closeJournal(store *journal.Store) {
	if err := store.Close(); err != nil {
		a.Logger.Error("Failed to close journal: %v", err)
	}
}

// RenderRequest is the input of `note render`
type RenderRequest struct {
	Template string
	Out      string
	Values   map[string]string
}

// RenderNote renders a template into the repository and commits the
// result. Git failures are reported but do not fail the command.
func (a *App) RenderNote(ctx context.Context, req RenderRequest) (string, error) {
	if err := a.Initialize(); err != nil {
		return "", err
	}

	templates, err := notes.Templates(a.fs, a.Config.TemplatesDir)
	if err != nil {
		return "", err
	}
	tplPath, ok := templates[req.Template]
	if !ok {
		return "", vsErrors.NewConfigError("tpl", req.Template,
			vsErrors.Wrapf(vsErrors.ErrInvalidConfiguration, "unknown template (choose from %s)",
				strings.Join(notes.TemplateNames(templates), ", ")))
	}

	values := make(map[string]string, len(req.Values)+1)
	for k, v := range req.Values {
		values[k] = v
	}
	if values["date"] == "" {
		values["date"] = a.now().Format(journal.DateLayout)
	}

	outPath := req.Out
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(a.Config.RepoPath, outPath)
	}
	if err := notes.RenderToFile(a.fs, tplPath, outPath, values); err != nil {
		return "", err
	}
	a.Logger.Success("Rendered %s -> %s", req.Template, a.relative(outPath))

	a.commitNote(ctx, outPath, notes.CommitMessage(req.Template, req.Out))
	return outPath, nil
}

func (a *App) commitNote(ctx context.Context, path, message string) {
	if a.Committer == nil {
		if err := a.verifyRepository(); err != nil {
			a.Logger.WarningToUser("Git automation skipped: %v", err)
			return
		}
		repo, err := git.NewRepo(a.repoConfig(), a.Logger)
		if err != nil {
			a.Logger.WarningToUser("Git automation skipped: %v", err)
			return
		}
		a.Committer = repo
	}

	committed, err := a.Committer.CommitPaths(ctx, message, path)
	if err != nil {
		a.Logger.WarningToUser("Git automation skipped: %v", err)
		return
	}
	if !committed {
		a.Logger.InfoToUser("No changes to commit")
		return
	}
	a.Logger.Success("Committed: %s", message)

	if a.Config.NoPush {
		return
	}
	if err := a.Committer.Push(ctx); err != nil {
		a.Logger.WarningToUser("Push failed: %v", err)
	}
}

// WriteDailyNote writes the daily ops note for date (today when empty)
func (a *App) WriteDailyNote(ctx context.Context, date string) (string, error) {
	if err := a.Initialize(); err != nil {
		return "", err
	}
	if date == "" {
		date = a.now().Format(journal.DateLayout)
	}

	store, err := a.openJournal(ctx)
	if err != nil {
		return "", err
	}
	defer a.closeJournal(store)

	tickers, err := store.TopTickers(ctx, 5)
	if err != nil {
		return "", err
	}
	exports, err := retention.Newest(a.fs, a.Config.ExportsDir, 5)
	if err != nil {
		return "", err
	}

	path := notes.DailyPath(a.Config.VaultDir, date)
	if err := notes.WriteFile(a.fs, path, notes.Daily(date, tickers, exports)); err != nil {
		return "", err
	}
	a.Logger.Success("Wrote %s", a.relative(path))
	return path, nil
}

// Backup archives the configured sources into the backup directory
func (a *App) Backup() (backup.Result, error) {
	if err := a.Initialize(); err != nil {
		return backup.Result{}, err
	}

	result, err := backup.Archive(a.fs, a.Config.BackupDir, a.Config.BackupSources, a.now())
	for _, src := range result.Skipped {
		a.Logger.WarningToUser("Backup source %s does not exist; skipped", src)
	}
	if err != nil {
		return result, err
	}

	a.Logger.Success("Backup written to %s (%d files, %s)",
		result.Path, result.Files, humanize.Bytes(uint64(result.Bytes)))
	return result, nil
}

// relative shortens paths under the repository for display
func (a *App) relative(path string) string {
	if rel, err := filepath.Rel(a.Config.RepoPath, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.Stdout, "vaultsync %s (%s) built on %s\n",
		a.Config.VersionInfo.Version,
		a.Config.VersionInfo.Commit,
		a.Config.VersionInfo.Date)
}

// Close releases resources held by the App
func (a *App) Close() error {
	var errs []error

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if a.Locker != nil {
		if err := a.Locker.Release(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("Failed to release lock during cleanup: %v", err)
			} else {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to release lock during cleanup: %v\n", err)
			}
			errs = append(errs, err)
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
			errs = append(errs, err)
		}
	}

	return vsErrors.Join(errs...)
}

// CleanupOnSignal releases resources and shows the summary when the loop
// does not stop in time after a signal
func (a *App) CleanupOnSignal() {
	a.PrintSummary()
	if err := a.Close(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
	}
}
