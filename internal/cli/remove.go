package cli

import (
	"napm/internal/history"
	"napm/pkg/resolver"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove [packages...]",
	Aliases: []string{"uninstall"},
	Short:   "Remove packages",
	Long: `Remove installed packages. The operation is refused if another
installed package still depends on the target. Dependencies that are no
longer needed by anything are offered for removal as well.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if removeRecurse {
			cfg.General.RemoveOrphans = true
		}
		requests := make([]resolver.Request, len(args))
		for i, name := range args {
			requests[i] = resolver.Remove(name)
		}
		return runTransaction(cmd.Context(), history.OpRemove, args, staticRequests(requests))
	},
}

var removeRecurse bool

func init() {
	removeCmd.Flags().BoolVarP(&removeRecurse, "recurse", "r", false, "also remove dependencies nothing else needs")
}
