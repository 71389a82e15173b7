package cli

import (
	"napm/internal/ui"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search available packages",
	Long: `Search the repository index for packages whose name or description
matches every term. Name matches are listed first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := loadIndex()
		if err != nil {
			return err
		}

		results := idx.Search(args)
		if len(results) == 0 {
			ui.MutedMsg("no packages found")
			return nil
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		installed := make(map[string]bool, len(results))
		for _, r := range results {
			rec, err := db.Get(r.Name)
			if err != nil {
				return err
			}
			installed[r.Name] = rec != nil
		}

		ui.PrintSearchResults(results, installed)
		return nil
	},
}
