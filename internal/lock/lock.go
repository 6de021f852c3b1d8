package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

// Locker prevents concurrent sync daemons on one repository
type Locker struct {
	lockFile string
	lockFd   *os.File
	pid      int
	acquired bool
}

// New creates a Locker for the specified repository path
func New(repoPath string) (*Locker, error) {
	return NewInDir(repoPath, os.TempDir())
}

// NewInDir creates a Locker whose lock file lives in dir
func NewInDir(repoPath, dir string) (*Locker, error) {
	if runtime.GOOS == "windows" {
		return nil, vsErrors.NewLockError("", 0,
			vsErrors.Wrap(vsErrors.ErrLockAcquisitionFailure,
				"vaultsync only supports Unix-like operating systems"))
	}

	repoHash := fmt.Sprintf("%x", sha256.Sum256([]byte(repoPath)))[:16]

	return &Locker{
		lockFile: filepath.Join(dir, fmt.Sprintf("vaultsync-%s.lock", repoHash)),
		pid:      os.Getpid(),
	}, nil
}

// Path returns the lock file location
func (l *Locker) Path() string {
	return l.lockFile
}

// Acquire takes the lock, recovering it from a dead holder if needed
func (l *Locker) Acquire() error {
	err := l.create()
	if err == nil {
		return nil
	}
	if os.IsExist(err) {
		return l.acquireExisting()
	}
	return err
}

// create makes a fresh lock file; O_EXCL makes creation atomic
func (l *Locker) create() error {
	fd, err := os.OpenFile(l.lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
	if err != nil {
		// os.IsExist must still see the raw error
		if os.IsExist(err) {
			return err
		}
		return vsErrors.NewLockError(l.lockFile, 0, vsErrors.Wrap(err, "failed to create lock file"))
	}
	l.lockFd = fd

	if err := l.flock(); err != nil {
		l.closeFd()
		return vsErrors.NewLockError(l.lockFile, 0, vsErrors.Wrap(err, "failed to lock newly created lock file"))
	}

	return l.finish(false)
}

// acquireExisting locks a lock file that is already on disk
func (l *Locker) acquireExisting() error {
	fd, err := os.OpenFile(l.lockFile, os.O_RDWR, 0666)
	if err != nil {
		return vsErrors.NewLockError(l.lockFile, 0, vsErrors.Wrap(err, "failed to open existing lock file"))
	}
	l.lockFd = fd

	if err := l.flock(); err != nil {
		l.closeFd()

		// EWOULDBLOCK and EAGAIN are distinct on some older systems.
		if vsErrors.Is(err, unix.EWOULDBLOCK) || vsErrors.Is(err, unix.EAGAIN) {
			return l.handleBlocked()
		}
		return vsErrors.NewLockError(l.lockFile, 0, vsErrors.Wrap(err, "failed to acquire lock"))
	}

	return l.finish(true)
}

// handleBlocked decides between a live holder and a stale lock
func (l *Locker) handleBlocked() error {
	otherPid, err := l.readPid()
	if err != nil {
		return vsErrors.NewLockError(l.lockFile, 0,
			vsErrors.Wrap(err, "lock is held, but the holder's PID could not be read"))
	}

	if processRunning(otherPid) {
		return vsErrors.NewLockError(l.lockFile, otherPid, vsErrors.ErrAlreadyRunning)
	}

	if err := os.Remove(l.lockFile); err != nil {
		return vsErrors.NewLockError(l.lockFile, otherPid,
			vsErrors.Wrapf(err, "found stale lock from PID %d, but failed to remove it", otherPid))
	}

	fd, err := os.OpenFile(l.lockFile, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
	if err != nil {
		if os.IsExist(err) {
			return vsErrors.NewLockError(l.lockFile, 0,
				vsErrors.Wrap(vsErrors.ErrAlreadyRunning, "another instance took the lock after the stale lock was removed"))
		}
		return vsErrors.NewLockError(l.lockFile, 0, vsErrors.Wrap(err, "failed to recreate lock file"))
	}
	l.lockFd = fd

	if err := l.flock(); err != nil {
		l.closeFd()
		return vsErrors.NewLockError(l.lockFile, 0, vsErrors.Wrap(err, "failed to lock recreated lock file"))
	}

	return l.finish(false)
}

// finish records our PID and marks the lock as held
func (l *Locker) finish(truncate bool) error {
	if truncate {
		if err := l.lockFd.Truncate(0); err != nil {
			_ = l.Release()
			return vsErrors.NewLockError(l.lockFile, l.pid, vsErrors.Wrap(err, "failed to truncate lock file"))
		}
	}

	if _, err := l.lockFd.WriteAt([]byte(strconv.Itoa(l.pid)), 0); err != nil {
		if releaseErr := l.Release(); releaseErr != nil {
			return vsErrors.Wrapf(err, "failed to write PID and failed to release lock: %v", releaseErr)
		}
		return vsErrors.NewLockError(l.lockFile, l.pid, vsErrors.Wrap(err, "failed to write PID to lock file"))
	}

	l.acquired = true
	return nil
}

func (l *Locker) flock() error {
	return unix.Flock(int(l.lockFd.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func (l *Locker) closeFd() {
	if l.lockFd != nil {
		_ = l.lockFd.Close()
		l.lockFd = nil
	}
}

// readPid parses the holder PID from the lock file
func (l *Locker) readPid() (int, error) {
	data, err := os.ReadFile(l.lockFile)
	if err != nil {
		return 0, vsErrors.Wrap(err, "failed to read lock file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, vsErrors.Wrap(err, "invalid PID in lock file")
	}
	return pid, nil
}

// processRunning probes a PID with signal 0
func processRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	// EPERM means the process exists but belongs to someone else.
	return err == nil || err == unix.EPERM
}

// Release unlocks and removes the lock file. Calling it on an unheld
// Locker is a no-op.
func (l *Locker) Release() error {
	if l.lockFd == nil {
		return nil
	}

	var err error

	var stat unix.Stat_t
	fd := int(l.lockFd.Fd())
	if statErr := unix.Fstat(fd, &stat); statErr != nil {
		err = vsErrors.NewLockError(l.lockFile, l.pid,
			vsErrors.Wrap(statErr, "failed to stat lock file - file descriptor is invalid"))
	} else if flockErr := unix.Flock(fd, unix.LOCK_UN); flockErr != nil {
		err = vsErrors.NewLockError(l.lockFile, l.pid, vsErrors.Wrap(flockErr, "failed to release lock"))
	}

	if closeErr := l.lockFd.Close(); closeErr != nil && err == nil {
		err = vsErrors.NewLockError(l.lockFile, l.pid, vsErrors.Wrap(closeErr, "failed to close lock file"))
	}

	l.lockFd = nil
	l.acquired = false

	if removeErr := os.Remove(l.lockFile); removeErr != nil && !os.IsNotExist(removeErr) && err == nil {
		err = vsErrors.NewLockError(l.lockFile, l.pid, vsErrors.Wrap(removeErr, "failed to remove lock file"))
	}

	return err
}
