// Package errors provides error handling utilities for vaultsync.
//
// It defines the sentinel errors shared across packages and a handful of
// typed errors that carry context about the failed operation: the git
// command that ran, the lock file involved, the configuration parameter at
// fault, or the filesystem path being touched.
//
// # Usage
//
//	if err != nil {
//	    return errors.Wrap(err, "failed to prune exports")
//	}
//
//	if errors.Is(err, errors.ErrGitOperationFailed) {
//	    // surface for manual intervention
//	}
//
// Every typed error implements Unwrap, so errors.Is and errors.As see
// through them to the sentinel or the underlying cause.
package errors
