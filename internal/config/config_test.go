package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizzk/vaultsync/internal/errors"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultVaultDir, cfg.VaultDir)
	assert.Equal(t, DefaultExportsDir, cfg.ExportsDir)
	assert.Equal(t, 500, cfg.MaxExports)
	assert.Equal(t, 15*time.Second, cfg.Settle)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 15*time.Minute, cfg.Heartbeat)
	assert.Equal(t, WatchModePoll, cfg.WatchMode)
	assert.False(t, cfg.NoPush)
	assert.Equal(t, "dev", cfg.VersionInfo.Version)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("VAULTSYNC_VAULT", "notes")
	t.Setenv("VAULTSYNC_MAX_EXPORTS", "42")
	t.Setenv("VAULTSYNC_SETTLE", "30s")
	t.Setenv("VAULTSYNC_NO_PUSH", "yes")
	t.Setenv("VAULTSYNC_QUIET", "1")
	t.Setenv("VAULTSYNC_WATCH_MODE", "notify")
	t.Setenv("VAULTSYNC_HEARTBEAT", "not-a-duration")

	cfg := New()
	cfg.LoadFromEnvironment()

	assert.Equal(t, "notes", cfg.VaultDir)
	assert.Equal(t, 42, cfg.MaxExports)
	assert.Equal(t, 30*time.Second, cfg.Settle)
	assert.True(t, cfg.NoPush)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, WatchModeNotify, cfg.WatchMode)
	assert.Equal(t, DefaultHeartbeat, cfg.Heartbeat, "invalid values keep the default")
}

func TestLoadFileLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultsync.yaml")
	content := `
vault: vault-from-file
exports: exports-from-file
max_exports: 10
settle: 5s
heartbeat: 0s
no_push: true
backup_sources:
  - vault-from-file
  - data
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("VAULTSYNC_EXPORTS", "exports-from-env")

	cfg := New()
	cfg.LoadFromEnvironment()

	explicit := func(flag string) bool { return flag == "max-exports" }
	cfg.MaxExports = 99 // set by flag

	require.NoError(t, cfg.LoadFile(path, explicit))

	assert.Equal(t, "vault-from-file", cfg.VaultDir)
	assert.Equal(t, "exports-from-env", cfg.ExportsDir, "environment beats file")
	assert.Equal(t, 99, cfg.MaxExports, "flags beat file")
	assert.Equal(t, 5*time.Second, cfg.Settle)
	assert.Equal(t, time.Duration(0), cfg.Heartbeat)
	assert.True(t, cfg.NoPush)
	assert.Equal(t, []string{"vault-from-file", "data"}, cfg.BackupSources)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]struct {
		content string
		missing bool
	}{
		"missing file":   {missing: true},
		"malformed yaml": {content: "vault: [unterminated"},
		"bad duration":   {content: "settle: forever"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if !tc.missing {
				require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))
			}

			err := New().LoadFile(path, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))

			var cfgErr *errors.ConfigError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestSetupFlags(t *testing.T) {
	cfg := New()
	fs := pflag.NewFlagSet("vaultsync", pflag.ContinueOnError)
	cfg.SetupFlags(fs)
	cfg.SetupSyncFlags(fs)

	err := fs.Parse([]string{
		"--repo", "/srv/notes",
		"--max-exports", "7",
		"--settle", "1m",
		"--watch-mode", "notify",
		"--no-push",
		"-q",
	})
	require.NoError(t, err)

	assert.Equal(t, "/srv/notes", cfg.RepoPath)
	assert.Equal(t, 7, cfg.MaxExports)
	assert.Equal(t, time.Minute, cfg.Settle)
	assert.Equal(t, WatchModeNotify, cfg.WatchMode)
	assert.True(t, cfg.NoPush)
	assert.True(t, cfg.Quiet)
}

func TestFinalize(t *testing.T) {
	repo := t.TempDir()

	tests := map[string]struct {
		mutate    func(c *Config)
		wantParam string
	}{
		"valid":                 {mutate: func(c *Config) {}},
		"negative max exports":  {mutate: func(c *Config) { c.MaxExports = -1 }, wantParam: "max-exports"},
		"negative settle":       {mutate: func(c *Config) { c.Settle = -time.Second }, wantParam: "settle"},
		"zero poll interval":    {mutate: func(c *Config) { c.PollInterval = 0 }, wantParam: "poll-interval"},
		"negative heartbeat":    {mutate: func(c *Config) { c.Heartbeat = -time.Minute }, wantParam: "heartbeat"},
		"negative max retries":  {mutate: func(c *Config) { c.MaxRetries = -2 }, wantParam: "max-retries"},
		"unknown watch mode":    {mutate: func(c *Config) { c.WatchMode = "inotify" }, wantParam: "watch-mode"},
		"zero max exports okay": {mutate: func(c *Config) { c.MaxExports = 0 }},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.RepoPath = repo
			tc.mutate(cfg)

			err := cfg.Finalize()
			if tc.wantParam == "" {
				require.NoError(t, err)
				return
			}

			var cfgErr *errors.ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tc.wantParam, cfgErr.Parameter)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfiguration))
		})
	}
}

func TestFinalizeResolvesPaths(t *testing.T) {
	repo := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(repo, "xdg"))

	cfg := New()
	cfg.RepoPath = repo
	cfg.ExportsDir = "/abs/exports"
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, filepath.Join(repo, DefaultVaultDir), cfg.VaultDir)
	assert.Equal(t, "/abs/exports", cfg.ExportsDir)
	assert.Equal(t, filepath.Join(repo, DefaultDBPath), cfg.DBPath)
	assert.Equal(t, filepath.Join(repo, DefaultTemplatesDir), cfg.TemplatesDir)
	assert.Equal(t, []string{
		filepath.Join(repo, DefaultVaultDir),
		filepath.Join(repo, "data"),
	}, cfg.BackupSources)
	assert.Contains(t, cfg.LogFile, filepath.Join(repo, "xdg", "vaultsync", "logs", "vaultsync-"))
}
