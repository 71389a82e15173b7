package cli

import (
	"napm/internal/history"
	"napm/pkg/database"
	"napm/pkg/repo"
	"napm/pkg/resolver"

	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [packages...]",
	Short: "Upgrade packages to the newest indexed versions",
	Long: `Upgrade the named packages, or every installed package when no
names are given. Only strictly newer versions are applied, and an upgrade
that would break another installed package's dependencies is refused.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		build := func(installed []*database.PackageRecord, idx *repo.Index) ([]resolver.Request, error) {
			if len(args) == 0 {
				return resolver.UpgradeRequests(installed, idx), nil
			}
			requests := make([]resolver.Request, len(args))
			for i, name := range args {
				requests[i] = resolver.Upgrade(name)
			}
			return requests, nil
		}
		return runTransaction(cmd.Context(), history.OpUpgrade, args, build)
	},
}
