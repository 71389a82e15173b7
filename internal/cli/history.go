package cli

import (
	"time"

	"napm/internal/config"
	"napm/internal/history"
	"napm/internal/ui"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyClear bool
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(config.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		if historyClear {
			if err := store.Clear(); err != nil {
				return err
			}
			ui.SuccessMsg("History cleared")
			return nil
		}

		if historyPrune > 0 {
			deleted, err := store.Prune(historyPrune)
			if err != nil {
				return err
			}
			ui.SuccessMsg("Pruned %d old entries", deleted)
			return nil
		}

		entries, err := store.List(historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			ui.MutedMsg("no history")
			return nil
		}

		for _, e := range entries {
			if e.Success {
				ui.Println("%s", e.Summary())
			} else {
				ui.Println("%s", ui.Red(e.Summary()))
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "number of entries to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history entries")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete entries older than this (e.g. 720h)")
}
