package cli

import (
	"napm/internal/history"
	"napm/pkg/resolver"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [packages...]",
	Short: "Install packages and their dependencies",
	Long: `Install packages from the synced repository indexes, pulling in
everything they depend on. Already-satisfied packages are skipped.

Targets may carry version constraints:

  napm install vim
  napm install 'postgresql>=16'
  napm install vim git -y`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requests := make([]resolver.Request, len(args))
		for i, target := range args {
			requests[i] = resolver.Install(target)
		}
		return runTransaction(cmd.Context(), history.OpInstall, args, staticRequests(requests))
	},
}
