package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizzk/vaultsync/internal/config"
)

func execute(t *testing.T, app *testApp, args ...string) error {
	t.Helper()
	root := newRootCommand(app.App)
	root.SetArgs(args)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)
	return root.ExecuteContext(context.Background())
}

func TestVersionCommand(t *testing.T) {
	cfg := config.New()
	cfg.VersionInfo = config.VersionInfo{Version: "0.3.0", Commit: "deadbeef", Date: "2026-04-03"}
	app := newTestApp(t, AppOptions{Config: cfg})

	require.NoError(t, execute(t, app, "version"))
	assert.Equal(t, "vaultsync 0.3.0 (deadbeef) built on 2026-04-03\n", app.stdout.String())
}

func TestTradeCommands(t *testing.T) {
	app := newTestApp(t, AppOptions{})

	require.NoError(t, execute(t, app,
		"trade", "add", "--ticker", "amd", "--side", "long",
		"--entry", "100", "--stop", "98", "--exit", "106", "--qty", "3",
		"--date", "2026-04-01", "--tags", "swing,semis"))

	exports, err := os.ReadDir(filepath.Join(app.repo, "obsidian", "90_exports"))
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.True(t, strings.HasPrefix(exports[0].Name(), "trade_2026-04-01_AMD_"))

	app.stdout.Reset()
	require.NoError(t, execute(t, app, "trade", "list", "-n", "5"))
	out := app.stdout.String()
	assert.Contains(t, out, "AMD")
	assert.Contains(t, out, "2026-04-01")
	assert.Contains(t, out, "3.00")
}

func TestTradeAddRequiresFlags(t *testing.T) {
	app := newTestApp(t, AppOptions{})

	err := execute(t, app, "trade", "add", "--ticker", "amd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTradeAddRejectsExcessRisk(t *testing.T) {
	app := newTestApp(t, AppOptions{})

	err := execute(t, app,
		"trade", "add", "--ticker", "amd", "--side", "long",
		"--entry", "100", "--stop", "50", "--qty", "1000", "--max-risk", "500")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk $50000.00 exceeds limit $500.00")
	assert.NoDirExists(t, filepath.Join(app.repo, "obsidian", "90_exports"))
}

func TestConfigFileLayering(t *testing.T) {
	app := newTestApp(t, AppOptions{})

	cfgPath := filepath.Join(app.repo, "vaultsync.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("vault: notes\ndb: journal/trades.db\nmax_exports: 42\n"), 0o644))

	require.NoError(t, execute(t, app, "--config", cfgPath, "--vault", "vault", "db", "init"))

	assert.Equal(t, filepath.Join(app.repo, "vault"), app.Config.VaultDir)
	assert.Equal(t, filepath.Join(app.repo, "journal", "trades.db"), app.Config.DBPath)
	assert.Equal(t, 42, app.Config.MaxExports)
	assert.FileExists(t, app.Config.DBPath)
}

func TestNoteDailyCommand(t *testing.T) {
	app := newTestApp(t, AppOptions{})

	require.NoError(t, execute(t, app, "note", "daily", "--date", "2026-04-05"))

	body, err := os.ReadFile(filepath.Join(app.repo, "obsidian", "00_inbox", "2026-04-05-daily-ops.md"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "# Daily Ops · 2026-04-05")
	assert.Contains(t, string(body), "- _No trades logged yet._")
}

func TestNoteRenderCommand(t *testing.T) {
	committer := &MockCommitter{Committed: true}
	app := newTestApp(t, AppOptions{Committer: committer})
	writeTemplate(t, app, "idea.md", "{{name}}|{{ticker}}|{{date}}")

	require.NoError(t, execute(t, app,
		"note", "render", "--tpl", "idea.md", "--out", "obsidian/a.md",
		"--ticker", "QQQ", "--no-push"))

	body, err := os.ReadFile(filepath.Join(app.repo, "obsidian", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "Untitled|QQQ|2026-04-03", string(body))
	assert.Equal(t, 0, committer.Pushes)
}

func TestSyncCommandStopsOnCancel(t *testing.T) {
	syncer := &MockSyncer{RunErr: context.Canceled}
	app := newTestApp(t, AppOptions{Syncer: syncer, Locker: &MockLocker{}})

	require.NoError(t, execute(t, app, "sync", "--settle", "1s"))
	assert.True(t, syncer.RunCalled)
	assert.True(t, syncer.SummaryCalled)
	assert.Equal(t, time.Second, app.Config.Settle)
}
