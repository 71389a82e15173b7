package transaction

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")

	lock, err := AcquireLock(path, 1, time.Millisecond)
	require.NoError(t, err)

	_, err = AcquireLock(path, 3, time.Millisecond)
	require.ErrorIs(t, err, ErrLockBusy)

	require.NoError(t, lock.Release())

	lock2, err := AcquireLock(path, 1, time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}

func TestAcquireLockRetriesUntilFree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")

	lock, err := AcquireLock(path, 1, time.Millisecond)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := AcquireLock(path, 50, 5*time.Millisecond)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, lock.Release())

	require.NoError(t, <-done)
}

func TestRemoveStaleLockMissing(t *testing.T) {
	removed, err := RemoveStaleLock(filepath.Join(t.TempDir(), "lock"))
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRemoveStaleLockLiveOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	require.NoError(t, os.WriteFile(path, fmt.Appendf(nil, "%d\n", os.Getpid()), 0o600))

	removed, err := RemoveStaleLock(path)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.FileExists(t, path)
}

func TestRemoveStaleLockDeadOwner(t *testing.T) {
	// A just-reaped child gives a pid that is known to be gone.
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	deadPid := cmd.Process.Pid

	path := filepath.Join(t.TempDir(), "lock")
	require.NoError(t, os.WriteFile(path, fmt.Appendf(nil, "%d\n", deadPid), 0o600))

	removed, err := RemoveStaleLock(path)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoFileExists(t, path)
}

func TestRemoveStaleLockGarbageContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o600))

	removed, err := RemoveStaleLock(path)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoFileExists(t, path)
}
