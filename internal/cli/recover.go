package cli

import (
	"napm/internal/history"
	"napm/internal/ui"
	"napm/pkg/transaction"

	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Finish or roll back an interrupted transaction",
	Long: `Inspect the journal left by an interrupted transaction and bring
the system back to a consistent state: a transaction that had finished all
its file changes is completed, anything short of that is rolled back. Safe
to run at any time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if removed, err := transaction.RemoveStaleLock(cfg.LockPath()); err != nil {
			return err
		} else if removed {
			ui.InfoMsg("Removed stale lock left by a dead process")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := transaction.Recover(db, cfg.JournalPath())
		if err != nil {
			return err
		}

		switch result.Outcome {
		case transaction.RecoveryNone:
			ui.SuccessMsg("No interrupted transaction found")
			return nil
		case transaction.RecoveryAborted:
			ui.SuccessMsg("Interrupted transaction had not started; journal discarded")
		case transaction.RecoveryRolledBack:
			if len(result.Irreversible) > 0 {
				ui.WarningMsg("Rolled back, but some files could not be restored:")
				for _, path := range result.Irreversible {
					ui.MutedMsg("  %s", path)
				}
			} else {
				ui.SuccessMsg("Interrupted transaction rolled back")
			}
		case transaction.RecoveryCompleted:
			ui.SuccessMsg("Interrupted transaction completed")
		}

		entry := history.NewEntry(history.OpRecover, []string{string(result.Outcome)})
		entry.MarkSuccess(result.Generation, nil, nil, 0)
		recordHistory(entry)
		return nil
	},
}
