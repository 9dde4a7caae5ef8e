// Package cli defines Cobra command definitions for the pvlab CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pvlab-dev/pvlab/internal/tui"
	"github.com/pvlab-dev/pvlab/internal/tui/app"
)

var (
	jsonOut bool
	version = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "pvlab",
	Short: "Operator console for the PV shutoff-device test lab",
	Long: `pvlab is the terminal console for the shutoff-device test lab.
It signs in against the lab backend, browses test records and devices,
drives spreadsheet imports to completion, and renders the statistics
dashboards.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// When no subcommand is provided, launch TUI if TTY, show help otherwise
		if !tui.IsTTY() {
			return cmd.Help()
		}

		c, err := newConsole()
		if err != nil {
			return err
		}
		defer c.Close()

		tuiApp := app.New(app.Deps{
			Config:   c.cfg,
			Client:   c.client,
			Sessions: c.sessions,
			Cache:    c.cache,
			Imports:  c.imports,
			Stats:    c.stats,
			Logger:   c.logger,
		})
		return tui.Run(tuiApp)
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Emit machine-readable JSON instead of tables")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(importsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reportCmd)
}
