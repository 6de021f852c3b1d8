// Package lock keeps a single sync daemon per repository.
//
// The lock is an flock(2) on a file in the system temp directory whose
// name is derived from a hash of the repository path. The holder's PID is
// written into the file so a later process can tell a live holder from a
// stale file left behind by a crash; stale files are removed and the lock
// is taken over.
//
// Only Unix-like systems are supported.
package lock
