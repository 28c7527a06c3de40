package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagOffline bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "plaid",
	Short: "plaid – plan and log your work week against Jira",
	Long: `plaid shows your Jira work logs as a week grid, points out the gaps in
your working hours and lets you add, move and resize work logs.

Settings live in ~/.plaid/config.json. With --offline (or "offline": true)
work logs are kept as JSON files in ~/.plaid/worklogs/ instead.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Keep work logs in local files instead of Jira")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(uiCmd)
}
