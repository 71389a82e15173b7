package cli

import (
	"sort"

	"napm/internal/ui"
	"napm/pkg/version"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Show which upgrades are available",
	Long: `Compare every installed package against the synced repository
indexes and list the ones a newer version exists for. Nothing is modified;
run 'napm upgrade' to apply.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		idx, err := loadIndex()
		if err != nil {
			return err
		}

		installed, err := db.All()
		if err != nil {
			return err
		}
		sort.Slice(installed, func(i, j int) bool { return installed[i].Name < installed[j].Name })

		table := ui.NewTable([]string{"package", "installed", "available"})
		upgrades := 0
		for _, inst := range installed {
			best := idx.Best(inst.Name, version.Constraint{})
			if best == nil || version.Compare(best.Version, inst.Version) <= 0 {
				continue
			}
			table.AddRow(inst.Name, inst.Version, ui.Green(best.Version))
			upgrades++
		}

		if upgrades == 0 {
			ui.SuccessMsg("System is up to date (%d packages)", len(installed))
			return nil
		}

		table.Render()
		ui.InfoMsg("%d upgrade(s) available", upgrades)
		return nil
	},
}
