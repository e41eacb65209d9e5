package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rufusd",
	Short: "In-process job scheduler daemon",
	Long: `rufusd - job scheduler daemon

Schedules configured commands at absolute times, after delays, at fixed
intervals or on cron expressions:
- 5/6-field cron expressions with optional timezones
- compact duration specs ("1h10s", "90m", "1w2d")
- per-job timeouts, tags, named mutexes and fire limits
- Prometheus metrics and a management API

Examples:
  rufusd serve                        # Start daemon
  rufusd tui                          # Interactive dashboard
  rufusd check "*/5 * * * *"          # Validate a schedule spec`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		// Default to serve when no subcommand is given.
		serveCmd.Run(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}
