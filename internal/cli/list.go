package cli

import (
	"sort"

	"napm/internal/ui"
	"napm/pkg/database"

	"github.com/spf13/cobra"
)

var (
	listExplicit bool
	listDeps     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		installed, err := db.All()
		if err != nil {
			return err
		}

		var filtered []*database.PackageRecord
		for _, r := range installed {
			if listExplicit && r.Reason != database.ReasonExplicit {
				continue
			}
			if listDeps && r.Reason != database.ReasonDependency {
				continue
			}
			filtered = append(filtered, r)
		}
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })

		ui.PrintPackages(filtered)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listExplicit, "explicit", "e", false, "only explicitly installed packages")
	listCmd.Flags().BoolVarP(&listDeps, "deps", "d", false, "only packages installed as dependencies")
}
