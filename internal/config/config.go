package config

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/rizzk/vaultsync/internal/errors"
)

const (
	// DefaultVaultDir is the notes vault, relative to the repository.
	DefaultVaultDir = "obsidian"

	// DefaultExportsDir holds generated exports, relative to the repository.
	DefaultExportsDir = "obsidian/90_exports"

	// DefaultMaxExports is the retention ceiling for the exports folder.
	DefaultMaxExports = 500

	// DefaultSettle is the quiet period required after the last change.
	DefaultSettle = 15 * time.Second

	// DefaultPollInterval is the delay between change checks.
	DefaultPollInterval = 2 * time.Second

	// DefaultHeartbeat forces a snapshot attempt even without detected changes.
	DefaultHeartbeat = 15 * time.Minute

	// DefaultDBPath is the trade journal database, relative to the repository.
	DefaultDBPath = "data/vaultsync.db"

	// DefaultTemplatesDir holds note templates, relative to the repository.
	DefaultTemplatesDir = "templates"

	// DefaultBackupDir receives backup archives, relative to the repository.
	DefaultBackupDir = "backups"

	// WatchModePoll scans modification times on every tick.
	WatchModePoll = "poll"

	// WatchModeNotify relies on filesystem notifications.
	WatchModeNotify = "notify"
)

// Config holds all vaultsync settings
type Config struct {
	// Repository
	RepoPath string
	Remote   string
	Branch   string
	NoPush   bool

	// Watched paths
	VaultDir   string
	ExportsDir string
	MaxExports int

	// Loop timing
	Settle       time.Duration
	PollInterval time.Duration
	Heartbeat    time.Duration
	WatchMode    string
	MaxRetries   int

	// Tools
	DBPath        string
	TemplatesDir  string
	BackupDir     string
	BackupSources []string

	// Output
	Quiet   bool
	Debug   bool
	LogFile string

	// ConfigFile names an optional YAML file layered under env and flags.
	ConfigFile string

	// Build metadata
	VersionInfo VersionInfo
}

// VersionInfo contains build-time version metadata
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		VaultDir:     DefaultVaultDir,
		ExportsDir:   DefaultExportsDir,
		MaxExports:   DefaultMaxExports,
		Settle:       DefaultSettle,
		PollInterval: DefaultPollInterval,
		Heartbeat:    DefaultHeartbeat,
		WatchMode:    WatchModePoll,
		DBPath:       DefaultDBPath,
		TemplatesDir: DefaultTemplatesDir,
		BackupDir:    DefaultBackupDir,

		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// setting ties a flag name and an environment variable to a Config field.
type setting struct {
	flag  string
	env   string
	apply func(c *Config, raw string) error
}

func stringSetting(flag, env string, field func(c *Config) *string) setting {
	return setting{flag: flag, env: env, apply: func(c *Config, raw string) error {
		*field(c) = raw
		return nil
	}}
}

func intSetting(flag, env string, field func(c *Config) *int) setting {
	return setting{flag: flag, env: env, apply: func(c *Config, raw string) error {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}}
}

func durationSetting(flag, env string, field func(c *Config) *time.Duration) setting {
	return setting{flag: flag, env: env, apply: func(c *Config, raw string) error {
		v, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}}
}

func boolSetting(flag, env string, field func(c *Config) *bool) setting {
	return setting{flag: flag, env: env, apply: func(c *Config, raw string) error {
		v, ok := parseBool(raw)
		if !ok {
			return fmt.Errorf("not a boolean: %q", raw)
		}
		*field(c) = v
		return nil
	}}
}

// settings lists every value that can come from the environment or a file.
var settings = []setting{
	stringSetting("repo", "VAULTSYNC_REPO", func(c *Config) *string { return &c.RepoPath }),
	stringSetting("remote", "VAULTSYNC_REMOTE", func(c *Config) *string { return &c.Remote }),
	stringSetting("branch", "VAULTSYNC_BRANCH", func(c *Config) *string { return &c.Branch }),
	boolSetting("no-push", "VAULTSYNC_NO_PUSH", func(c *Config) *bool { return &c.NoPush }),
	stringSetting("vault", "VAULTSYNC_VAULT", func(c *Config) *string { return &c.VaultDir }),
	stringSetting("exports", "VAULTSYNC_EXPORTS", func(c *Config) *string { return &c.ExportsDir }),
	intSetting("max-exports", "VAULTSYNC_MAX_EXPORTS", func(c *Config) *int { return &c.MaxExports }),
	durationSetting("settle", "VAULTSYNC_SETTLE", func(c *Config) *time.Duration { return &c.Settle }),
	durationSetting("poll-interval", "VAULTSYNC_POLL_INTERVAL", func(c *Config) *time.Duration { return &c.PollInterval }),
	durationSetting("heartbeat", "VAULTSYNC_HEARTBEAT", func(c *Config) *time.Duration { return &c.Heartbeat }),
	stringSetting("watch-mode", "VAULTSYNC_WATCH_MODE", func(c *Config) *string { return &c.WatchMode }),
	intSetting("max-retries", "VAULTSYNC_MAX_RETRIES", func(c *Config) *int { return &c.MaxRetries }),
	stringSetting("db", "VAULTSYNC_DB_PATH", func(c *Config) *string { return &c.DBPath }),
	stringSetting("templates", "VAULTSYNC_TEMPLATES", func(c *Config) *string { return &c.TemplatesDir }),
	stringSetting("backup-dir", "VAULTSYNC_BACKUP_DIR", func(c *Config) *string { return &c.BackupDir }),
	boolSetting("quiet", "VAULTSYNC_QUIET", func(c *Config) *bool { return &c.Quiet }),
	boolSetting("debug", "VAULTSYNC_DEBUG", func(c *Config) *bool { return &c.Debug }),
	stringSetting("log-file", "VAULTSYNC_LOG_FILE", func(c *Config) *string { return &c.LogFile }),
}

// LoadFromEnvironment updates config from VAULTSYNC_* environment variables.
// Unparseable values are ignored and the current value is kept.
func (c *Config) LoadFromEnvironment() {
	for _, s := range settings {
		if raw, ok := os.LookupEnv(s.env); ok {
			_ = s.apply(c, raw)
		}
	}
	c.ConfigFile = getEnvString("VAULTSYNC_CONFIG", c.ConfigFile)
}

// fileConfig mirrors the YAML layout of a config file.
type fileConfig struct {
	Repo         *string  `yaml:"repo"`
	Remote       *string  `yaml:"remote"`
	Branch       *string  `yaml:"branch"`
	NoPush       *bool    `yaml:"no_push"`
	Vault        *string  `yaml:"vault"`
	Exports      *string  `yaml:"exports"`
	MaxExports   *int     `yaml:"max_exports"`
	Settle       *string  `yaml:"settle"`
	PollInterval *string  `yaml:"poll_interval"`
	Heartbeat    *string  `yaml:"heartbeat"`
	WatchMode    *string  `yaml:"watch_mode"`
	MaxRetries   *int     `yaml:"max_retries"`
	DB           *string  `yaml:"db"`
	Templates    *string  `yaml:"templates"`
	BackupDir    *string  `yaml:"backup_dir"`
	Backup       []string `yaml:"backup_sources"`
	Quiet        *bool    `yaml:"quiet"`
	Debug        *bool    `yaml:"debug"`
	LogFile      *string  `yaml:"log_file"`
}

// raw returns the file values keyed by flag name.
func (f fileConfig) raw() map[string]string {
	out := make(map[string]string)
	put := func(name string, v *string) {
		if v != nil {
			out[name] = *v
		}
	}
	putInt := func(name string, v *int) {
		if v != nil {
			out[name] = strconv.Itoa(*v)
		}
	}
	putBool := func(name string, v *bool) {
		if v != nil {
			out[name] = strconv.FormatBool(*v)
		}
	}

	put("repo", f.Repo)
	put("remote", f.Remote)
	put("branch", f.Branch)
	putBool("no-push", f.NoPush)
	put("vault", f.Vault)
	put("exports", f.Exports)
	putInt("max-exports", f.MaxExports)
	put("settle", f.Settle)
	put("poll-interval", f.PollInterval)
	put("heartbeat", f.Heartbeat)
	put("watch-mode", f.WatchMode)
	putInt("max-retries", f.MaxRetries)
	put("db", f.DB)
	put("templates", f.Templates)
	put("backup-dir", f.BackupDir)
	putBool("quiet", f.Quiet)
	putBool("debug", f.Debug)
	put("log-file", f.LogFile)
	return out
}

// LoadFile applies a YAML config file. A value is skipped when its
// environment variable is set or when explicit reports that the matching
// flag was given, so the file never overrides a higher layer.
func (c *Config) LoadFile(path string, explicit func(flag string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewConfigError("config", path, errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return errors.NewConfigError("config", path, errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("failed to parse YAML: %v", err)))
	}

	values := fc.raw()
	for _, s := range settings {
		raw, ok := values[s.flag]
		if !ok {
			continue
		}
		if _, envSet := os.LookupEnv(s.env); envSet {
			continue
		}
		if explicit != nil && explicit(s.flag) {
			continue
		}
		if err := s.apply(c, raw); err != nil {
			return errors.NewConfigError(s.flag, raw, errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
		}
	}

	if len(fc.Backup) > 0 && (explicit == nil || !explicit("source")) {
		c.BackupSources = fc.Backup
	}

	return nil
}

// SetupFlags registers persistent command-line flags that override config values
func (c *Config) SetupFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Path to a YAML config file")
	fs.StringVar(&c.RepoPath, "repo", c.RepoPath, "Path to the git repository (default: current directory)")
	fs.StringVar(&c.VaultDir, "vault", c.VaultDir, "Notes vault directory, relative to the repository")
	fs.StringVar(&c.ExportsDir, "exports", c.ExportsDir, "Exports directory, relative to the repository")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "Trade journal database path")
	fs.BoolVarP(&c.Debug, "debug", "d", c.Debug, "Enable debug logging to the log file")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Path to log file (default: $XDG_DATA_HOME/vaultsync/logs/vaultsync-{repo-hash}.log)")
	fs.BoolVarP(&c.Quiet, "quiet", "q", c.Quiet, "Hide warnings from the terminal")
}

// SetupSyncFlags registers the flags that only the sync loop reads
func (c *Config) SetupSyncFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.MaxExports, "max-exports", c.MaxExports, "Maximum number of export files to retain")
	fs.DurationVar(&c.Settle, "settle", c.Settle, "Quiet period after the last change before committing")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "Delay between change checks")
	fs.DurationVar(&c.Heartbeat, "heartbeat", c.Heartbeat, "Attempt a snapshot this often even without changes (0 disables)")
	fs.StringVar(&c.WatchMode, "watch-mode", c.WatchMode, "Change detection: poll or notify")
	fs.IntVar(&c.MaxRetries, "max-retries", c.MaxRetries, "Stop after this many identical consecutive errors (0 retries forever)")
	fs.StringVar(&c.Remote, "remote", c.Remote, "Remote to push to (default: the branch's upstream)")
	fs.StringVar(&c.Branch, "branch", c.Branch, "Branch to push (default: the current branch)")
	fs.BoolVar(&c.NoPush, "no-push", c.NoPush, "Commit locally without pushing")
}

// Finalize validates the configuration and resolves derived values
func (c *Config) Finalize() error {
	if c.MaxExports < 0 {
		return errors.NewConfigError("max-exports", c.MaxExports,
			errors.Wrap(errors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.Settle < 0 {
		return errors.NewConfigError("settle", c.Settle,
			errors.Wrap(errors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.PollInterval <= 0 {
		return errors.NewConfigError("poll-interval", c.PollInterval,
			errors.Wrap(errors.ErrInvalidConfiguration, "must be greater than zero"))
	}
	if c.Heartbeat < 0 {
		return errors.NewConfigError("heartbeat", c.Heartbeat,
			errors.Wrap(errors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.MaxRetries < 0 {
		return errors.NewConfigError("max-retries", c.MaxRetries,
			errors.Wrap(errors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.WatchMode != WatchModePoll && c.WatchMode != WatchModeNotify {
		return errors.NewConfigError("watch-mode", c.WatchMode,
			errors.Wrap(errors.ErrInvalidConfiguration, "must be \"poll\" or \"notify\""))
	}

	if c.RepoPath == "" {
		var err error
		c.RepoPath, err = os.Getwd()
		if err != nil {
			return errors.NewConfigError("repo", "", errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("failed to get current directory: %v", err)))
		}
	}

	absRepoPath, err := filepath.Abs(c.RepoPath)
	if err != nil {
		return errors.NewConfigError("repo", c.RepoPath, errors.Wrap(errors.ErrInvalidConfiguration, fmt.Sprintf("failed to resolve absolute path: %v", err)))
	}
	c.RepoPath = absRepoPath

	c.VaultDir = c.resolve(c.VaultDir)
	c.ExportsDir = c.resolve(c.ExportsDir)
	c.DBPath = c.resolve(c.DBPath)
	c.TemplatesDir = c.resolve(c.TemplatesDir)
	c.BackupDir = c.resolve(c.BackupDir)

	if len(c.BackupSources) == 0 {
		c.BackupSources = []string{c.VaultDir, filepath.Dir(c.DBPath)}
	}
	for i, src := range c.BackupSources {
		c.BackupSources[i] = c.resolve(src)
	}

	if c.LogFile == "" {
		// Follow XDG Base Directory Specification
		logDir := os.Getenv("XDG_DATA_HOME")
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				logDir = filepath.Join(homeDir, ".local", "share")
			} else {
				logDir = os.TempDir()
			}
		}

		repoHash := fmt.Sprintf("%x", sha256OfString(c.RepoPath)[:8])
		c.LogFile = filepath.Join(logDir, "vaultsync", "logs", fmt.Sprintf("vaultsync-%s.log", repoHash))
	}

	return nil
}

// resolve anchors a relative path at the repository root
func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.RepoPath, path)
}

// getEnvString returns an environment variable string or a default value
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// parseBool accepts the spellings operators tend to put in env files
func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

// sha256OfString returns the SHA256 hash of a string
func sha256OfString(input string) []byte {
	hash := sha256.Sum256([]byte(input))
	return hash[:]
}
