package cli

import (
	"sort"

	"napm/internal/history"
	"napm/internal/ui"
	"napm/pkg/database"
	"napm/pkg/resolver"

	"github.com/spf13/cobra"
)

var orphansRemove bool

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List dependencies nothing depends on anymore",
	Long: `List packages that were installed as dependencies and are no
longer required by any installed package. With --remove, remove them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if orphansRemove {
			return removeOrphans(cmd)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		installed, err := db.All()
		if err != nil {
			return err
		}

		orphans := findOrphans(installed)
		if len(orphans) == 0 {
			ui.SuccessMsg("No orphaned dependencies")
			return nil
		}

		ui.PrintPackages(orphans)
		ui.InfoMsg("Run 'napm orphans --remove' to remove them")
		return nil
	},
}

func init() {
	orphansCmd.Flags().BoolVar(&orphansRemove, "remove", false, "remove the orphaned packages")
}

func removeOrphans(cmd *cobra.Command) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	installed, err := db.All()
	db.Close()
	if err != nil {
		return err
	}

	orphans := findOrphans(installed)
	if len(orphans) == 0 {
		ui.SuccessMsg("No orphaned dependencies")
		return nil
	}

	names := make([]string, len(orphans))
	requests := make([]resolver.Request, len(orphans))
	for i, r := range orphans {
		names[i] = r.Name
		requests[i] = resolver.Remove(r.Name)
	}

	return runTransaction(cmd.Context(), history.OpRemove, names, staticRequests(requests))
}

// findOrphans computes the fixpoint of dependency-installed packages that
// no remaining package requires: removing one orphan can orphan the
// packages only it depended on.
func findOrphans(installed []*database.PackageRecord) []*database.PackageRecord {
	remaining := make(map[string]*database.PackageRecord, len(installed))
	for _, r := range installed {
		remaining[r.Name] = r
	}

	var orphans []*database.PackageRecord
	for {
		var batch []*database.PackageRecord
		for _, r := range remaining {
			if r.Reason != database.ReasonDependency {
				continue
			}
			if !requiredBy(remaining, r) {
				batch = append(batch, r)
			}
		}
		if len(batch) == 0 {
			break
		}
		for _, r := range batch {
			delete(remaining, r.Name)
		}
		orphans = append(orphans, batch...)
	}

	sort.Slice(orphans, func(i, j int) bool { return orphans[i].Name < orphans[j].Name })
	return orphans
}

func requiredBy(universe map[string]*database.PackageRecord, p *database.PackageRecord) bool {
	for _, other := range universe {
		if other.Name == p.Name {
			continue
		}
		for _, dep := range other.Depends {
			if p.Satisfies(dep) {
				return true
			}
		}
	}
	return false
}
