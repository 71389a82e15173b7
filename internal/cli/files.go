package cli

import (
	"fmt"
	"path"
	"strings"

	"napm/internal/ui"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files [package]",
	Short: "List the files an installed package owns",
	Args:  cobra.ExactArgs(1),
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
		if rec == nil {
			return fmt.Errorf("package %s is not installed", name)
		}

		for _, f := range rec.Files {
			line := path.Join("/", f.Path)
			if f.IsDir() {
				ui.MutedMsg("%s/", strings.TrimSuffix(line, "/"))
			} else {
				ui.Println("%s", line)
			}
		}
		return nil
	},
}
