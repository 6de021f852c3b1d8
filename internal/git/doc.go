// Package git drives the git command-line tool for vault snapshots.
//
// Commands run through a CommandExecutor so tests can substitute a mock
// that records invocations. The real executor shells out to the git
// binary on PATH, which keeps every repository feature and the user's
// credential helpers available for push.
//
// A snapshot is always: stage, confirm that something is staged, commit,
// and only then push. Nothing here resolves conflicts or rewrites history;
// failures come back as *errors.GitError values wrapping
// errors.ErrGitOperationFailed for the caller to log.
//
// Repository detection uses go-git so it works without spawning a process.
package git
