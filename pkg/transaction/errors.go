package transaction

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLockBusy is returned when another transaction holds the lock.
	ErrLockBusy = errors.New("another transaction is in progress")

	// ErrStalePlan is returned when the database changed after the plan
	// was computed.
	ErrStalePlan = errors.New("plan is stale: database changed since planning")

	// ErrJournalExists is returned when a previous transaction left a
	// journal behind; recovery must run before a new transaction starts.
	ErrJournalExists = errors.New("unfinished transaction journal present, run recovery first")
)

// FileConflictError reports a planned file write onto a path owned by a
// package that is not leaving the system in the same plan.
type FileConflictError struct {
	Path  string
	Owner string
	Pkg   string
}

func (e *FileConflictError) Error() string {
	return fmt.Sprintf("file %s of package %s is already owned by %s", e.Path, e.Pkg, e.Owner)
}

// InsufficientSpaceError reports that the plan's net size exceeds the free
// space on the target filesystem.
type InsufficientSpaceError struct {
	Needed    int64
	Available int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space: need %d bytes, %d available", e.Needed, e.Available)
}

// JournalError reports a failure to write or read the transaction journal.
// Nothing has been modified when it is returned from Execute.
type JournalError struct {
	Op  string
	Err error
}

func (e *JournalError) Error() string {
	return fmt.Sprintf("journal %s failed: %v", e.Op, e.Err)
}

func (e *JournalError) Unwrap() error { return e.Err }

// ApplyError reports a failed file action. RolledBack tells whether the
// already-applied actions were reversed; Irreversible lists paths whose
// reversal failed and that therefore no longer match the database.
type ApplyError struct {
	Path         string
	Pkg          string
	Err          error
	RolledBack   bool
	Irreversible []string
}

func (e *ApplyError) Error() string {
	msg := fmt.Sprintf("failed to apply %s (package %s): %v", e.Path, e.Pkg, e.Err)
	if e.RolledBack {
		msg += "; all changes rolled back"
	}
	if len(e.Irreversible) > 0 {
		msg += "; could not restore: " + strings.Join(e.Irreversible, ", ")
	}
	return msg
}

func (e *ApplyError) Unwrap() error { return e.Err }

// HookError reports a mandatory hook failure that aborted the transaction.
type HookError struct {
	Hook         string
	Err          error
	RolledBack   bool
	Irreversible []string
}

func (e *HookError) Error() string {
	msg := fmt.Sprintf("mandatory hook %s failed: %v", e.Hook, e.Err)
	if e.RolledBack {
		msg += "; all changes rolled back"
	}
	if len(e.Irreversible) > 0 {
		msg += "; could not restore: " + strings.Join(e.Irreversible, ", ")
	}
	return msg
}

func (e *HookError) Unwrap() error { return e.Err }

// DatabaseUpdateError reports that file actions were applied but the
// database commit failed. The journal is left in place; rerunning recovery
// completes the database update.
type DatabaseUpdateError struct {
	Err error
}

func (e *DatabaseUpdateError) Error() string {
	return fmt.Sprintf("file actions applied but database update failed, rerun recovery: %v", e.Err)
}

func (e *DatabaseUpdateError) Unwrap() error { return e.Err }
