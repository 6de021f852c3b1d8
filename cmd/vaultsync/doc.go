// Package main implements vaultsync, a sync daemon and tool belt for a
// notes vault kept in git.
//
// # Sync
//
// `vaultsync sync` watches the vault and exports folders. When the newest
// change has been quiet for the settle window it trims the exports folder
// to the newest files, stages the whole tree, commits if anything is
// staged and pushes. A heartbeat snapshot is attempted every 15 minutes
// even without detected changes. Only one sync may run per repository.
//
//	vaultsync sync                          # poll every 2s, settle 15s
//	vaultsync sync --settle 30s --no-push   # commit locally only
//	vaultsync sync --watch-mode notify      # fsnotify instead of polling
//
// # Tools
//
//	vaultsync db init
//	vaultsync trade add --ticker AAPL --side long --entry 100 --stop 95 --exit 115 --qty 10
//	vaultsync trade list -n 10
//	vaultsync note render --tpl idea.md --out obsidian/ideas/gap.md --name "Gap fill"
//	vaultsync note daily
//	vaultsync backup --source obsidian --source data
//
// # Configuration
//
// Values are layered: built-in defaults, then a YAML file (--config or
// VAULTSYNC_CONFIG), then VAULTSYNC_* environment variables, then flags.
// Relative paths are resolved against the repository root.
//
//	--repo           Repository root (env: VAULTSYNC_REPO)
//	--vault          Vault directory (env: VAULTSYNC_VAULT)
//	--exports        Exports directory (env: VAULTSYNC_EXPORTS)
//	--max-exports    Retention ceiling (env: VAULTSYNC_MAX_EXPORTS)
//	--settle         Quiet period before commit (env: VAULTSYNC_SETTLE)
//	--poll-interval  Tick period (env: VAULTSYNC_POLL_INTERVAL)
//	--heartbeat      Forced snapshot period, 0 disables (env: VAULTSYNC_HEARTBEAT)
//	--remote         Push remote (env: VAULTSYNC_REMOTE)
//	--branch         Push branch (env: VAULTSYNC_BRANCH)
//	--no-push        Commit only (env: VAULTSYNC_NO_PUSH)
//	--watch-mode     poll or notify (env: VAULTSYNC_WATCH_MODE)
//	--max-retries    Identical errors tolerated, 0 forever (env: VAULTSYNC_MAX_RETRIES)
//	--db             Journal database (env: VAULTSYNC_DB_PATH)
//	--debug          Write a JSON debug log (env: VAULTSYNC_DEBUG)
//	--log-file       Debug log path (env: VAULTSYNC_LOG_FILE)
//	--quiet          Hide warnings (env: VAULTSYNC_QUIET)
package main
