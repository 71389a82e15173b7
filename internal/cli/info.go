package cli

import (
	"fmt"

	"napm/internal/ui"
	"napm/pkg/version"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [package]",
	Short: "Show detailed package information",
	Long: `Show the metadata of an installed package, or of the best indexed
candidate when the package is not installed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		rec, err := db.Get(name)
		if err != nil {
			return err
		}
		if rec != nil {
			ui.PrintPackageInfo(rec)
			return nil
		}

		idx, err := loadIndex()
		if err != nil {
			return err
		}
		if best := idx.Best(name, version.Constraint{}); best != nil {
			ui.PrintPackageInfo(best)
			ui.MutedMsg("\n  (not installed)")
			return nil
		}

		return fmt.Errorf("package %s not found", name)
	},
}
