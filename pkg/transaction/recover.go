package transaction

import (
	"os"
	"sort"

	"napm/internal/logging"
	"napm/pkg/database"
)

// RecoveryOutcome describes what a recovery pass found and did.
type RecoveryOutcome string

const (
	// RecoveryNone means no journal was present.
	RecoveryNone RecoveryOutcome = "none"
	// RecoveryAborted means the journal was created but no file action had
	// started; the journal was simply discarded.
	RecoveryAborted RecoveryOutcome = "aborted"
	// RecoveryRolledBack means a partially applied transaction was reversed.
	RecoveryRolledBack RecoveryOutcome = "rolled-back"
	// RecoveryCompleted means all file actions had finished; the database
	// update was reapplied if it had not landed.
	RecoveryCompleted RecoveryOutcome = "completed"
)

// RecoveryResult reports the outcome of a recovery pass.
type RecoveryResult struct {
	Outcome      RecoveryOutcome
	Generation   uint64
	Irreversible []string
}

// Recover inspects the journal left by an interrupted transaction and drives
// the system back to a consistent state: a transaction that finished its file
// actions is completed, anything short of that is rolled back. Recover is
// idempotent; running it with no journal present is a no-op.
func Recover(db *database.DB, journalPath string) (*RecoveryResult, error) {
	log := logging.GetLogger("recovery")

	state, err := readJournal(journalPath)
	if os.IsNotExist(err) {
		return &RecoveryResult{Outcome: RecoveryNone}, nil
	}
	if err != nil {
		return nil, &JournalError{Op: "read", Err: err}
	}

	cleanup := func() {
		os.Remove(journalPath)
		if state.Header.BackupDir != "" {
			os.RemoveAll(state.Header.BackupDir)
		}
	}

	switch {
	case state.Committed:
		// Crash after commit, before journal removal.
		cleanup()
		return &RecoveryResult{Outcome: RecoveryCompleted}, nil

	case !state.Applying:
		// Crash before the first file action; nothing was modified.
		cleanup()
		return &RecoveryResult{Outcome: RecoveryAborted}, nil

	case state.allDone():
		// Every file action landed; only the database update may be
		// missing. The generation snapshot makes the reapply idempotent.
		gen, err := db.Generation()
		if err != nil {
			return nil, err
		}
		if gen == state.Header.Generation {
			log.Info().Uint64("generation", gen).Msg("reapplying database update")
			gen, err = db.Apply(state.Header.Change)
			if err != nil {
				// Journal kept so recovery can be retried.
				return nil, &DatabaseUpdateError{Err: err}
			}
		}
		cleanup()
		return &RecoveryResult{Outcome: RecoveryCompleted, Generation: gen}, nil
	}

	// Partial apply: reverse the completed actions.
	indexes := make([]int, 0, len(state.Done))
	for idx := range state.Done {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	applied := make([]appliedAction, 0, len(indexes))
	for _, idx := range indexes {
		applied = append(applied, appliedAction{
			idx:    idx,
			action: state.Header.Actions[idx],
			backup: state.Done[idx],
		})
	}

	irreversible := rollbackActions(state.Header.Root, applied, nil)
	for _, path := range irreversible {
		log.Error().Str("path", path).Msg("could not restore file during rollback")
	}
	cleanup()

	log.Info().Int("reversed", len(applied)-len(irreversible)).Msg("rolled back interrupted transaction")
	return &RecoveryResult{Outcome: RecoveryRolledBack, Irreversible: irreversible}, nil
}
