// Package cli implements the tend command-line interface using Cobra.
// Each subcommand maps to one progression operation (log, reflect,
// status, quests, timeline).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tend",
	Short: "tend — track small efforts, watch them compound",
	Long: `tend is a local-first progression tracker.
Log signals against the skills you are growing, reflect at the end of
the day, and tend turns them into XP, streaks, levels, and quests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var flagUser string

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "default", "Profile to act on")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
