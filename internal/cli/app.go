package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"napm/internal/config"
	"napm/internal/history"
	"napm/internal/logging"
	"napm/internal/ui"
	"napm/pkg/content"
	"napm/pkg/database"
	"napm/pkg/repo"
	"napm/pkg/resolver"
	"napm/pkg/transaction"
)

func openDB() (*database.DB, error) {
	path := cfg.DBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return database.Open(path)
}

func loadIndex() (*repo.Index, error) {
	return repo.DirLoader{Dir: cfg.RepoDir()}.Load()
}

// requestBuilder produces the resolution requests for an operation once the
// database snapshot and repository indexes are available.
type requestBuilder func(installed []*database.PackageRecord, idx *repo.Index) ([]resolver.Request, error)

// runTransaction drives a full transaction: lock, resolve, plan, confirm,
// execute, record. Dry-run mode stops after showing the plan.
func runTransaction(ctx context.Context, op history.Operation, targets []string, build requestBuilder) error {
	removed, err := transaction.RemoveStaleLock(cfg.LockPath())
	if err != nil {
		return err
	}
	if removed {
		ui.WarningMsg("Removed stale lock left by a dead process")
	}

	lock, err := transaction.AcquireLock(cfg.LockPath(), cfg.General.LockRetries, 500*time.Millisecond)
	if err != nil {
		return err
	}
	defer lock.Release()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	// A leftover journal means the previous transaction was interrupted;
	// recover before anything new starts.
	result, err := transaction.Recover(db, cfg.JournalPath())
	if err != nil {
		return err
	}
	switch result.Outcome {
	case transaction.RecoveryRolledBack:
		ui.WarningMsg("Rolled back an interrupted transaction")
		for _, path := range result.Irreversible {
			ui.ErrorMsg("  could not restore %s", path)
		}
	case transaction.RecoveryCompleted:
		ui.WarningMsg("Completed an interrupted transaction")
	case transaction.RecoveryAborted:
		ui.MutedMsg("Discarded an empty transaction journal")
	}

	idx, err := loadIndex()
	if err != nil {
		return err
	}

	installed, err := db.All()
	if err != nil {
		return err
	}

	requests, err := build(installed, idx)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		ui.InfoMsg("Nothing to do")
		return nil
	}

	for _, rec := range satisfiedTargets(requests, installed) {
		ui.InfoMsg("%s %s is already installed", rec.Name, rec.Version)
	}

	res, err := resolver.Resolve(requests, installed, idx)
	if err != nil {
		// A virtual dependency with several providers is resolved by
		// asking, then retrying with the choice pinned.
		var ambiguous *resolver.AmbiguousProvidesError
		if !errors.As(err, &ambiguous) || cfg.General.AutoConfirm {
			return err
		}
		choice, selErr := ui.SelectProvider(ambiguous.Dep.String(), ambiguous.Candidates)
		if selErr != nil {
			return err
		}
		requests = append(requests, resolver.Install(choice))
		if res, err = resolver.Resolve(requests, installed, idx); err != nil {
			return err
		}
	}
	if res.Empty() {
		ui.InfoMsg("Nothing to do")
		return nil
	}

	// Orphaned dependencies are only removed with consent.
	if len(res.AlsoRemove) > 0 && cfg.General.RemoveOrphans {
		names := make([]string, len(res.AlsoRemove))
		for i, r := range res.AlsoRemove {
			names[i] = r.Name
		}
		ok := cfg.General.AutoConfirm
		if !ok {
			ok, err = ui.Confirm("Also remove no-longer-needed: "+strings.Join(names, " ")+"?", true)
			if err != nil {
				return err
			}
		}
		if ok {
			for _, name := range names {
				requests = append(requests, resolver.Remove(name))
			}
			res, err = resolver.Resolve(requests, installed, idx)
			if err != nil {
				return err
			}
		}
	}

	// Planning verifies every staged file's checksum, which can take a
	// moment on large transactions.
	provider := content.DirProvider{Dir: cfg.CacheDir()}
	sp := ui.NewSpinner("Checking package contents")
	sp.Start()
	plan, err := transaction.BuildPlan(ctx, res, db, provider, cfg.General.Root, transaction.PlanOptions{
		CheckSpace: cfg.General.CheckSpace,
	})
	sp.Stop()
	if err != nil {
		return err
	}

	ui.PrintPlan(res, plan.SpaceDelta)

	if cfg.General.DryRun {
		ui.InfoMsg("Dry run, nothing applied")
		return nil
	}

	if !cfg.General.AutoConfirm {
		ok, err := ui.Confirm("Proceed with transaction?", true)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
	}

	entry := history.NewEntry(op, targets)
	executor := transaction.NewExecutor(db, cfg.General.Root, cfg.JournalPath(), cfg.BackupDir())

	receipt, err := executor.Execute(ctx, plan)
	if err != nil {
		entry.MarkFailed(err)
		recordHistory(entry)
		return err
	}

	entry.MarkSuccess(receipt.Generation, receipt.Installed, receipt.Removed, receipt.Duration)
	recordHistory(entry)

	ui.SuccessMsg("Transaction complete (generation %d)", receipt.Generation)
	return nil
}

// recordHistory logs the entry; a broken history database never fails the
// transaction itself.
func recordHistory(entry *history.Entry) {
	log := logging.GetLogger("cli")

	store, err := history.Open(config.HistoryPath())
	if err != nil {
		log.Warn().Err(err).Msg("could not open history database")
		return
	}
	defer store.Close()

	if err := store.Record(entry); err != nil {
		log.Warn().Err(err).Msg("could not record history entry")
	}
}

// satisfiedTargets returns the installed records that already satisfy
// install requests. The resolver drops such requests silently, so the
// caller echoes them instead.
func satisfiedTargets(requests []resolver.Request, installed []*database.PackageRecord) []*database.PackageRecord {
	var satisfied []*database.PackageRecord
	for _, req := range requests {
		if req.Kind != resolver.KindInstall {
			continue
		}
		dep := database.Depend{Name: req.Name, Constraint: req.Constraint}
		for _, rec := range installed {
			if rec.Satisfies(dep) {
				satisfied = append(satisfied, rec)
				break
			}
		}
	}
	return satisfied
}

// staticRequests wraps a fixed request list into a requestBuilder.
func staticRequests(requests []resolver.Request) requestBuilder {
	return func([]*database.PackageRecord, *repo.Index) ([]resolver.Request, error) {
		return requests, nil
	}
}
