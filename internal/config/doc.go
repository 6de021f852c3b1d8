// Package config holds vaultsync settings and the layering that fills them.
//
// Values are resolved in increasing precedence: built-in defaults, an
// optional YAML file, VAULTSYNC_* environment variables, then command-line
// flags. Finalize validates the result and resolves relative paths against
// the repository root.
//
// A config file looks like:
//
//	vault: obsidian
//	exports: obsidian/90_exports
//	max_exports: 500
//	settle: 15s
//	poll_interval: 2s
//	heartbeat: 15m
//	remote: origin
//	watch_mode: poll
package config
