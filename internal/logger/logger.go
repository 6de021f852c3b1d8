package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the logging interface used throughout vaultsync.
// Info, Warning and Error are operational records; the remaining methods
// address the user at the terminal.
type Logger interface {
	// Info logs an informational message to the log file only.
	Info(format string, args ...interface{})

	// Warning logs a warning. It is echoed to stdout in verbose mode.
	Warning(format string, args ...interface{})

	// Error logs an error and always echoes it to stderr.
	Error(format string, args ...interface{})

	// InfoToUser prints an informational message regardless of verbosity.
	InfoToUser(format string, args ...interface{})

	// WarningToUser prints a warning regardless of verbosity.
	WarningToUser(format string, args ...interface{})

	// Success prints a success message.
	Success(format string, args ...interface{})

	// StatusMessage prints a line to stdout without recording it.
	StatusMessage(format string, args ...interface{})

	// Close flushes buffered records and closes the log file.
	Close() error
}

var (
	infoPrefix    = color.New(color.FgCyan).SprintFunc()
	warningPrefix = color.New(color.FgYellow).SprintFunc()
	errorPrefix   = color.New(color.FgRed, color.Bold).SprintFunc()
	successPrefix = color.New(color.FgGreen).SprintFunc()
)

// DefaultLogger writes operational records through zap and user-facing
// messages to the configured writers.
type DefaultLogger struct {
	mu      sync.Mutex
	zl      *zap.SugaredLogger
	enabled bool
	logFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// New creates a new Logger instance
func New(enabled bool, logFile string, verbose bool) Logger {
	return NewWithOutput(enabled, logFile, verbose, os.Stdout, os.Stderr)
}

// NewWithOutput creates a DefaultLogger with custom output writers
func NewWithOutput(enabled bool, logFile string, verbose bool, stdout, stderr io.Writer) *DefaultLogger {
	l := &DefaultLogger{
		enabled: enabled,
		logFile: logFile,
		verbose: verbose,
		stdout:  stdout,
		stderr:  stderr,
	}

	if !enabled {
		l.zl = zap.NewNop().Sugar()
		return l
	}

	var sink zapcore.WriteSyncer
	if logDir := filepath.Dir(logFile); logDir != "." {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			_, _ = fmt.Fprintf(stderr, "%s Failed to create log directory: %v\n", warningPrefix("!"), err)
		}
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		l.file = f
		sink = zapcore.AddSync(f)
		_, _ = fmt.Fprintf(stdout, "Debug logging enabled. Logs will be written to: %s\n", logFile)
	} else {
		sink = zapcore.AddSync(stderr)
		_, _ = fmt.Fprintf(stderr, "%s Failed to open log file: %v, using stderr instead\n", warningPrefix("!"), err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, zap.InfoLevel)
	l.zl = zap.New(core).Named("vaultsync").Sugar()
	l.zl.Info("vaultsync debug logging started")

	return l
}

// Info logs an informational message (file only)
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.zl.Infof(format, args...)
}

// InfoToUser logs an informational message to both file and stdout
func (l *DefaultLogger) InfoToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Info(msg)
	_, _ = fmt.Fprintf(l.stdout, "%s %s\n", infoPrefix("i"), msg)
}

// Success logs a success message to both file and stdout
func (l *DefaultLogger) Success(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Info(msg)
	_, _ = fmt.Fprintf(l.stdout, "%s %s\n", successPrefix("✓"), msg)
}

// Warning logs a warning message
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Warn(msg)

	if l.verbose {
		_, _ = fmt.Fprintf(l.stdout, "%s %s\n", warningPrefix("!"), msg)
	}
}

// WarningToUser logs a warning message to both file and stdout
func (l *DefaultLogger) WarningToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Warn(msg)
	_, _ = fmt.Fprintf(l.stdout, "%s %s\n", warningPrefix("!"), msg)
}

// Error logs an error message
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Error(msg)
	_, _ = fmt.Fprintf(l.stderr, "%s %s\n", errorPrefix("x"), msg)
}

// StatusMessage prints a status message to stdout only (no logging)
func (l *DefaultLogger) StatusMessage(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Close flushes zap and closes the log file handle
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	// Sync on an *os.File flushes to disk; zap's own Sync forwards to it.
	_ = l.zl.Sync()
	err := l.file.Close()
	l.file = nil
	return err
}

// SetStdout sets a custom writer for user-facing stdout messages.
func (l *DefaultLogger) SetStdout(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stdout = w
}

// SetStderr sets a custom writer for user-facing stderr messages.
func (l *DefaultLogger) SetStderr(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stderr = w
}
