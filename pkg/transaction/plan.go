// Package transaction turns resolved plans into file-level action plans and
// applies them with journaling, so that an interrupted transaction is always
// recoverable to a consistent state.
package transaction

import (
	"context"
	"fmt"

	"napm/pkg/content"
	"napm/pkg/database"
	"napm/pkg/resolver"
)

// ActionKind is the type of a single file action.
type ActionKind int

const (
	ActionCreate ActionKind = iota
	ActionOverwrite
	ActionDelete
)

func (k ActionKind) String() string {
	switch k {
	case ActionCreate:
		return "create"
	case ActionOverwrite:
		return "overwrite"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// FileAction is one atomic filesystem mutation of a transaction. Path is
// manifest-relative with forward slashes; Source points at staged, verified
// content for creates and overwrites.
type FileAction struct {
	Kind     ActionKind `json:"kind"`
	Path     string     `json:"path"`
	Package  string     `json:"package"`
	Source   string     `json:"source,omitempty"`
	Checksum uint64     `json:"checksum,omitempty"`
	Size     int64      `json:"size,omitempty"`
}

// Plan is the fully expanded, executable form of a resolution. Building it
// performs no filesystem mutation, so a plan can be shown, discarded, or
// rebuilt freely (dry-run mode).
type Plan struct {
	Steps      []resolver.Step
	Actions    []FileAction
	Hooks      []Hook
	Change     database.ChangeSet
	SpaceDelta int64
	Generation uint64
}

// PlanOptions adjust plan construction.
type PlanOptions struct {
	// CheckSpace verifies the space delta against the root filesystem.
	CheckSpace bool
}

// BuildPlan expands a resolution into ordered file actions, detecting
// file-ownership conflicts and computing the disk-space delta.
func BuildPlan(ctx context.Context, res *resolver.Resolution, db *database.DB, provider content.Provider, root string, opts PlanOptions) (*Plan, error) {
	gen, err := db.Generation()
	if err != nil {
		return nil, err
	}

	plan := &Plan{Steps: res.Steps, Generation: gen}

	// Packages leaving the system in this plan; their files are free to
	// be taken over without a conflict.
	leaving := make(map[string]bool)
	for _, step := range res.Steps {
		if step.Old != nil {
			leaving[step.Old.Name] = true
		}
	}

	// Paths written by earlier steps of this same plan.
	planned := make(map[string]string)

	for _, step := range res.Steps {
		switch step.Kind {
		case resolver.StepRemove:
			plan.appendRemovals(step.Old, nil)
			plan.SpaceDelta -= step.Old.InstalledSize

		case resolver.StepInstall, resolver.StepReplace:
			tree, err := provider.Fetch(ctx, step.New)
			if err != nil {
				return nil, err
			}

			oldFiles := make(map[string]bool)
			if step.Old != nil {
				for _, f := range step.Old.Files {
					if !f.IsDir() {
						oldFiles[f.Path] = true
					}
				}
				plan.SpaceDelta -= step.Old.InstalledSize
			}

			newFiles := make(map[string]bool)
			for _, f := range step.New.Files {
				if f.IsDir() {
					continue
				}
				newFiles[f.Path] = true

				ref, ok := tree.Ref(f.Path)
				if !ok {
					return nil, fmt.Errorf("no content for %s of package %s", f.Path, step.New.Name)
				}

				if prev, ok := planned[f.Path]; ok && prev != step.New.Name {
					return nil, &FileConflictError{Path: f.Path, Owner: prev, Pkg: step.New.Name}
				}
				planned[f.Path] = step.New.Name

				kind := ActionCreate
				if oldFiles[f.Path] {
					kind = ActionOverwrite
				} else {
					owner, err := db.Owner(f.Path)
					if err != nil {
						return nil, err
					}
					if owner != "" && owner != step.New.Name && !leaving[owner] {
						return nil, &FileConflictError{Path: f.Path, Owner: owner, Pkg: step.New.Name}
					}
					if owner == step.New.Name {
						kind = ActionOverwrite
					}
				}

				plan.Actions = append(plan.Actions, FileAction{
					Kind:     kind,
					Path:     f.Path,
					Package:  step.New.Name,
					Source:   ref.Path,
					Checksum: ref.Checksum,
					Size:     ref.Size,
				})
			}

			// Obsolete files of the superseded version go away.
			if step.Old != nil {
				plan.appendRemovals(step.Old, newFiles)
			}

			plan.SpaceDelta += step.New.InstalledSize

			for _, spec := range step.New.Hooks {
				h, err := hookFromSpec(step.New.Name, spec)
				if err != nil {
					return nil, err
				}
				plan.Hooks = append(plan.Hooks, h)
			}
		}
	}

	plan.Change = database.ChangeSet{
		Install: res.Installed(),
		Remove:  res.Removed(),
	}

	if opts.CheckSpace && plan.SpaceDelta > 0 {
		avail, err := availableBytes(root)
		if err != nil {
			return nil, err
		}
		if plan.SpaceDelta > avail {
			return nil, &InsufficientSpaceError{Needed: plan.SpaceDelta, Available: avail}
		}
	}

	return plan, nil
}

// appendRemovals emits delete actions for every file of rec not present in
// keep.
func (p *Plan) appendRemovals(rec *database.PackageRecord, keep map[string]bool) {
	for _, f := range rec.Files {
		if f.IsDir() || keep[f.Path] {
			continue
		}
		p.Actions = append(p.Actions, FileAction{
			Kind:    ActionDelete,
			Path:    f.Path,
			Package: rec.Name,
		})
	}
}
