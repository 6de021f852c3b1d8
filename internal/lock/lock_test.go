package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizzk/vaultsync/internal/errors"
)

func TestNew(t *testing.T) {
	locker, err := NewInDir("/srv/notes", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, os.Getpid(), locker.pid)
	assert.False(t, locker.acquired)
	assert.Contains(t, locker.Path(), "vaultsync-")

	other, err := NewInDir("/srv/other", t.TempDir())
	require.NoError(t, err)
	assert.NotEqual(t, filepath.Base(locker.Path()), filepath.Base(other.Path()),
		"different repositories hash to different lock files")
}

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	first, err := NewInDir("/srv/notes", dir)
	require.NoError(t, err)
	require.NoError(t, first.Acquire())

	data, err := os.ReadFile(first.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	second, err := NewInDir("/srv/notes", dir)
	require.NoError(t, err)

	err = second.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAlreadyRunning))

	var lockErr *errors.LockError
	require.True(t, errors.As(err, &lockErr))
	assert.Equal(t, os.Getpid(), lockErr.PID)

	require.NoError(t, first.Release())
	_, err = os.Stat(first.Path())
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}

func TestStaleLockRecovery(t *testing.T) {
	dir := t.TempDir()

	locker, err := NewInDir("/srv/notes", dir)
	require.NoError(t, err)

	// A lock file with no flock held and a PID that cannot exist.
	require.NoError(t, os.WriteFile(locker.Path(), []byte("999999999"), 0666))

	require.NoError(t, locker.Acquire())
	data, err := os.ReadFile(locker.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, locker.Release())
}

func TestReleaseUnheld(t *testing.T) {
	locker, err := NewInDir("/srv/notes", t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, locker.Release())
}
