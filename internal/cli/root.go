// Package cli implements the hotelscore command-line interface using Cobra.
// Each subcommand maps to one scoring capability (serve, record, stats, etc.).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hotelscore",
	Short: "hotelscore: gamification scoring for the hotel back office",
	Long: `hotelscore turns back-office actions (incidents, maintenance, quality checks,
lost items, procedures, logins) into XP, levels, badges, streaks, ranks and
weekly challenges.

Run 'hotelscore serve' for the HTTP API, or score actions directly with
'hotelscore record'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
