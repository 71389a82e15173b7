package transaction

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Lock is the cooperative advisory lock serializing transactions. Creation
// is exclusive; a second invocation fails fast with ErrLockBusy after a
// bounded number of retries rather than waiting indefinitely.
type Lock struct {
	path string
}

// AcquireLock takes the transaction lock, retrying with backoff up to
// attempts times before giving up with ErrLockBusy.
func AcquireLock(path string, attempts int, backoff time.Duration) (*Lock, error) {
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		if i < attempts-1 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	return nil, ErrLockBusy
}

// Release removes the lock file.
func (l *Lock) Release() error {
	return os.Remove(l.path)
}

// RemoveStaleLock removes a lock file whose owning process is gone. It is
// part of startup recovery: a crash can leave the lock behind just like it
// leaves the journal. Returns true if a stale lock was removed.
func RemoveStaleLock(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		// Unreadable owner: treat as stale.
		return true, os.Remove(path)
	}
	if pid == os.Getpid() {
		return false, nil
	}

	// Signal 0 probes for existence without touching the process.
	if err := unix.Kill(pid, 0); err == unix.ESRCH {
		return true, os.Remove(path)
	}

	return false, nil
}
