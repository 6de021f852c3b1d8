// Package journal stores trades in SQLite and writes their markdown
// exports into the vault.
//
// The database is opened through a zombiezen sqlitex pool. Every
// connection gets WAL mode and a busy timeout before use, and the trades
// schema is created on Open, so `vaultsync db init` and the first
// `vaultsync trade add` behave the same on a fresh checkout.
//
// Saving a trade fills in whatever the caller left out: an id, today's
// date, the side, and the dollar risk, reward and reward-to-risk ratio
// derived from prices and quantity.
package journal
