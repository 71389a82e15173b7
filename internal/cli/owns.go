package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"napm/internal/ui"

	"github.com/spf13/cobra"
)

var ownsCmd = &cobra.Command{
	Use:   "owns [paths...]",
	Short: "Find which package owns a file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var missed int
		for _, arg := range args {
			owner, err := db.Owner(manifestPath(arg))
			if err != nil {
				return err
			}
			if owner == "" {
				ui.WarningMsg("%s is not owned by any package", arg)
				missed++
				continue
			}
			ui.Println("%s is owned by %s", arg, ui.Bold(owner))
		}

		if missed > 0 {
			return fmt.Errorf("%d path(s) not owned by any package", missed)
		}
		return nil
	},
}

// manifestPath converts a user-supplied path to the root-relative,
// forward-slash form file ownership is recorded in.
func manifestPath(arg string) string {
	p := filepath.ToSlash(arg)
	if root := filepath.ToSlash(cfg.General.Root); root != "/" && strings.HasPrefix(p, root) {
		p = strings.TrimPrefix(p, root)
	}
	return strings.TrimPrefix(p, "/")
}
