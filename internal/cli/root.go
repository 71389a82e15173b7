// Package cli implements the command-line interface for napm.
package cli

import (
	"napm/internal/config"
	"napm/internal/logging"
	"napm/internal/ui"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	rootDir string
	dryRun  bool
	yes     bool
	verbose bool
	noColor bool

	// Global state
	cfg *config.Config
)

// Build metadata - set at build time via ldflags
var (
	Version = "0.1.0-dev"
	Commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "napm",
	Short: "Native package manager with transactional installs",
	Long: `napm installs, upgrades, and removes packages with full dependency
resolution and crash-safe, journaled transactions. An interrupted
operation never leaves the system half-modified: on the next run,
recovery either completes it or rolls it back.

Examples:
  napm install vim git          # Install packages and their dependencies
  napm remove vim               # Remove a package (refuses to break others)
  napm upgrade                  # Upgrade everything to the synced indexes
  napm update                   # Show which upgrades are available
  napm owns /usr/bin/vim        # Find which package owns a file
  napm recover                  # Finish or roll back an interrupted run`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "operate on this filesystem root instead of /")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show the plan without executing it")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(ownsCmd)
	rootCmd.AddCommand(orphansCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(historyCmd)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && err != ErrAborted {
		ui.ErrorMsg("%v", err)
	}
	return err
}

// initializeApp sets up the application state.
func initializeApp() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Apply global flag overrides
	if rootDir != "" {
		cfg.General.Root = rootDir
	}
	if yes {
		cfg.General.AutoConfirm = true
	}
	if dryRun {
		cfg.General.DryRun = true
	}
	if noColor {
		cfg.Output.Color = false
	}
	if verbose {
		cfg.Output.Verbose = true
	}

	verbosity := 0
	if cfg.Output.Verbose {
		verbosity = 2
	}
	logging.Setup(verbosity)
	ui.Init(cfg.ShouldUseColor())

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print napm version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("napm version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
	},
}
