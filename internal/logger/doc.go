// Package logger provides logging facilities for vaultsync.
//
// Two audiences are served. Operational records (Info, Warning, Error) go
// to a JSON log file through zap when debug logging is enabled, so a
// long-running sync daemon leaves a greppable trail. Messages meant for a
// person at the terminal (InfoToUser, WarningToUser, Success,
// StatusMessage) are printed with a short colored prefix and also recorded
// in the file.
//
// # Usage
//
//	log := logger.New(cfg.Debug, cfg.LogFile, cfg.Verbose)
//	defer log.Close()
//
//	log.Info("scan found %d changed files", n)
//	log.Success("Committed snapshot: %s", msg)
//
// Close flushes the zap core and closes the file handle. DefaultLogger is
// safe for concurrent use.
package logger
