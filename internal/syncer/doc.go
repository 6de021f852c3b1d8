// Package syncer runs the change-settle-commit loop that keeps a vault
// committed and pushed.
//
// On every poll tick the Syncer asks its watch.Detector for the newest
// change since the last snapshot. Once that change is older than the
// settle window (or a heartbeat is due) it trims the exports folder to
// the retention ceiling and snapshots the repository: stage everything,
// commit when something is staged, push.
//
// # Failure handling
//
// Nothing is fatal by default. A failed stage or commit leaves the
// snapshot time where it was, so the same changes are picked up on the
// next tick. A failed push keeps the local commit and marks the push as
// pending; later ticks retry it even when nothing new has changed.
//
// Identical consecutive errors are counted. With MaxRetries set, the loop
// gives up once that count is exceeded.
package syncer
