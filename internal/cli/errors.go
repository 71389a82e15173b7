package cli

import (
	"errors"

	"napm/pkg/content"
	"napm/pkg/database"
	"napm/pkg/resolver"
	"napm/pkg/transaction"
)

// ErrAborted is returned when the user aborts an operation.
var ErrAborted = errors.New("operation aborted by user")

// Exit codes distinguish which stage of a transaction failed, so scripts
// can react to resolution failures differently from execution failures.
const (
	exitFailure = 1
	exitResolve = 2
	exitPlan    = 3
	exitExec    = 4
	exitLock    = 5
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var (
		unsatisfied  *resolver.UnsatisfiedError
		ambiguous    *resolver.AmbiguousProvidesError
		conflict     *resolver.ConflictError
		cycle        *resolver.CycleError
		notInstalled *resolver.NotInstalledError

		fileConflict *transaction.FileConflictError
		noSpace      *transaction.InsufficientSpaceError

		applyErr *transaction.ApplyError
		hookErr  *transaction.HookError
		dbErr    *transaction.DatabaseUpdateError
		jrnErr   *transaction.JournalError
	)

	switch {
	case errors.As(err, &unsatisfied),
		errors.As(err, &ambiguous),
		errors.As(err, &conflict),
		errors.As(err, &cycle),
		errors.As(err, &notInstalled):
		return exitResolve

	case errors.As(err, &fileConflict),
		errors.As(err, &noSpace),
		errors.Is(err, content.ErrNotCached):
		return exitPlan

	case errors.As(err, &applyErr),
		errors.As(err, &hookErr),
		errors.As(err, &dbErr),
		errors.As(err, &jrnErr),
		errors.Is(err, transaction.ErrStalePlan),
		errors.Is(err, transaction.ErrJournalExists):
		return exitExec

	case errors.Is(err, transaction.ErrLockBusy),
		errors.Is(err, database.ErrBusy):
		return exitLock
	}

	return exitFailure
}
