package transaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"napm/internal/logging"
	"napm/pkg/database"
)

// Executor applies a file action plan with journaling. A transaction ends
// either Committed or in a diagnosable rolled-back state; the on-disk
// package set and the database never disagree after recovery.
type Executor struct {
	db          *database.DB
	root        string
	journalPath string
	backupDir   string
	hooks       []Hook
	log         zerolog.Logger
}

// NewExecutor returns an executor rooted at root. The journal path and the
// backup directory must live on the same filesystem volume as root so that
// staging renames stay atomic.
func NewExecutor(db *database.DB, root, journalPath, backupDir string) *Executor {
	return &Executor{
		db:          db,
		root:        root,
		journalPath: journalPath,
		backupDir:   backupDir,
		log:         logging.GetLogger("executor"),
	}
}

// AddHook registers an executor-level hook that runs for every transaction,
// in addition to the hooks the plan's packages declare.
func (e *Executor) AddHook(h Hook) {
	e.hooks = append(e.hooks, h)
}

// Receipt summarizes a committed transaction.
type Receipt struct {
	Generation uint64
	Installed  []string
	Removed    []string
	Duration   time.Duration
}

type appliedAction struct {
	idx    int
	action FileAction
	backup string
}

// Execute applies the plan. Cancellation is honored only before the first
// file action; once applying starts, the transaction runs to a committed or
// rolled-back end state before returning.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*Receipt, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gen, err := e.db.Generation()
	if err != nil {
		return nil, err
	}
	if gen != plan.Generation {
		return nil, ErrStalePlan
	}

	if err := os.MkdirAll(e.backupDir, 0o700); err != nil {
		return nil, &JournalError{Op: "prepare", Err: err}
	}

	j, err := newJournal(e.journalPath, journalHeader{
		Version:    journalVersion,
		Root:       e.root,
		BackupDir:  e.backupDir,
		Generation: plan.Generation,
		Actions:    plan.Actions,
		Change:     plan.Change,
	})
	if err != nil {
		if errors.Is(err, ErrJournalExists) {
			return nil, err
		}
		return nil, &JournalError{Op: "create", Err: err}
	}

	// Last safe cancellation point: nothing has been modified yet.
	if err := ctx.Err(); err != nil {
		j.discard()
		return nil, err
	}

	// Operator-registered hooks run before the ones packages declare.
	hooks := append(append([]Hook(nil), e.hooks...), plan.Hooks...)

	if err := e.runHooks(ctx, hooks, PreTransaction); err != nil {
		j.discard()
		return nil, err
	}

	if err := j.markApplying(); err != nil {
		j.discard()
		return nil, &JournalError{Op: "mark applying", Err: err}
	}

	var applied []appliedAction
	fail := func(act FileAction, cause error) error {
		irreversible := e.rollback(j, applied)
		return &ApplyError{
			Path:         act.Path,
			Pkg:          act.Package,
			Err:          cause,
			RolledBack:   len(irreversible) == 0,
			Irreversible: irreversible,
		}
	}

	for i, act := range plan.Actions {
		e.log.Debug().Str("action", act.Kind.String()).Str("path", act.Path).Str("package", act.Package).Msg("applying")

		backup, err := e.apply(i, act)
		if err != nil {
			return nil, fail(act, err)
		}
		applied = append(applied, appliedAction{idx: i, action: act, backup: backup})

		if err := j.actionDone(i, backup); err != nil {
			return nil, fail(act, fmt.Errorf("journal write: %w", err))
		}
	}

	if err := e.runHooks(ctx, hooks, PostTransaction); err != nil {
		var hookErr *HookError
		if errors.As(err, &hookErr) {
			irreversible := e.rollback(j, applied)
			hookErr.RolledBack = len(irreversible) == 0
			hookErr.Irreversible = irreversible
		}
		return nil, err
	}

	newGen, err := e.db.Apply(plan.Change)
	if err != nil {
		// Journal stays: recovery reapplies the database update.
		return nil, &DatabaseUpdateError{Err: err}
	}

	if err := j.markCommitted(); err != nil {
		e.log.Warn().Err(err).Msg("failed to mark journal committed")
	}
	if err := j.discard(); err != nil {
		e.log.Warn().Err(err).Msg("failed to remove journal")
	}
	os.RemoveAll(e.backupDir)

	receipt := &Receipt{
		Generation: newGen,
		Removed:    plan.Change.Remove,
		Duration:   time.Since(start),
	}
	for _, rec := range plan.Change.Install {
		receipt.Installed = append(receipt.Installed, rec.Name)
	}

	e.log.Info().Uint64("generation", newGen).Int("actions", len(plan.Actions)).Dur("took", receipt.Duration).Msg("transaction committed")
	return receipt, nil
}

// rollback reverses the applied actions. Only a complete reversal releases
// the journal and the backups; after a partial one they stay on disk so
// recovery can retry and report what is still wrong.
func (e *Executor) rollback(j *journal, applied []appliedAction) []string {
	irreversible := rollbackActions(e.root, applied, func(idx int) {
		if err := j.actionUndone(idx); err != nil {
			e.log.Warn().Err(err).Int("action", idx).Msg("failed to journal reversal")
		}
	})
	if len(irreversible) == 0 {
		j.discard()
		os.RemoveAll(e.backupDir)
		return nil
	}
	j.close()
	e.log.Error().Strs("paths", irreversible).Str("journal", e.journalPath).Msg("rollback incomplete, journal kept for recovery")
	return irreversible
}

func (e *Executor) runHooks(ctx context.Context, hooks []Hook, when HookWhen) error {
	for _, h := range hooks {
		if h.When != when {
			continue
		}
		e.log.Debug().Str("hook", h.Name).Msg("running hook")
		if err := h.run(ctx); err != nil {
			if h.Mandatory {
				return &HookError{Hook: h.Name, Err: err}
			}
			e.log.Warn().Str("hook", h.Name).Err(err).Msg("hook failed")
		}
	}
	return nil
}

// apply performs one file action so that the action itself is atomic: new
// content is staged on the same volume and renamed over the target; backups
// are taken before the target is touched.
func (e *Executor) apply(idx int, act FileAction) (backup string, err error) {
	target := filepath.Join(e.root, filepath.FromSlash(act.Path))

	switch act.Kind {
	case ActionDelete:
		backup = filepath.Join(e.backupDir, strconv.Itoa(idx))
		if err := os.Rename(target, backup); err != nil {
			return "", err
		}
		return backup, nil

	case ActionCreate, ActionOverwrite:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", err
		}

		if _, statErr := os.Lstat(target); statErr == nil {
			backup = filepath.Join(e.backupDir, strconv.Itoa(idx))
			if err := copyFile(target, backup); err != nil {
				return "", fmt.Errorf("backing up %s: %w", target, err)
			}
		}

		if err := stageAndRename(act, target); err != nil {
			return "", err
		}
		return backup, nil
	}

	return "", fmt.Errorf("unknown action kind %d", act.Kind)
}

// stageAndRename writes the action's content next to the target, verifies
// its checksum, and atomically renames it into place.
func stageAndRename(act FileAction, target string) error {
	src, err := os.Open(act.Source)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".napm-stage-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	h := xxhash.New()
	if _, err = io.Copy(io.MultiWriter(tmp, h), src); err != nil {
		return err
	}
	if act.Checksum != 0 && h.Sum64() != act.Checksum {
		err = fmt.Errorf("checksum mismatch staging %s", act.Path)
		return err
	}
	if err = tmp.Chmod(info.Mode()); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, target)
}

// rollbackActions reverses applied actions newest-first, restoring backups
// and removing created files. Paths that could not be restored are
// returned; reverted is called with the action index of each successful
// reversal when non-nil.
func rollbackActions(root string, applied []appliedAction, reverted func(idx int)) []string {
	var irreversible []string

	for i := len(applied) - 1; i >= 0; i-- {
		a := applied[i]
		target := filepath.Join(root, filepath.FromSlash(a.action.Path))

		var err error
		switch a.action.Kind {
		case ActionDelete:
			err = os.Rename(a.backup, target)
		case ActionCreate, ActionOverwrite:
			if a.backup != "" {
				err = os.Rename(a.backup, target)
			} else {
				err = os.Remove(target)
			}
		}
		if err != nil && !alreadyReverted(a, target, err) {
			irreversible = append(irreversible, a.action.Path)
			continue
		}
		if reverted != nil {
			reverted(a.idx)
		}
	}

	return irreversible
}

// alreadyReverted reports whether a failed reversal step was in fact
// performed by an earlier rollback pass. The same journal can be rolled
// back more than once when a previous pass could not finish.
func alreadyReverted(a appliedAction, target string, err error) bool {
	if !os.IsNotExist(err) {
		return false
	}

	if a.backup == "" && a.action.Kind != ActionDelete {
		// A created file counts as reverted once it is gone.
		_, statErr := os.Lstat(target)
		return os.IsNotExist(statErr)
	}

	// The backup is gone. That is fine only if it already made it back to
	// the target.
	if _, statErr := os.Lstat(target); statErr != nil {
		return false
	}
	if a.action.Checksum != 0 {
		// The target could still hold the content this action wrote; the
		// action checksum tells the two apart.
		sum, hashErr := hashPath(target)
		if hashErr != nil || sum == a.action.Checksum {
			return false
		}
	}
	return true
}

func hashPath(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
