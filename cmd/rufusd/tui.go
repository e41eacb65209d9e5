package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nadnerb/rufus-scheduler/internal/tui"
)

var (
	tuiAddr  string
	tuiToken string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive jobs dashboard",
	Long:  `Live dashboard of scheduled jobs, connected to a running rufusd via its management API.`,
	Run: func(cmd *cobra.Command, args []string) {
		if tuiToken == "" {
			tuiToken = os.Getenv("RUFUS_GLOBAL_API_AUTH")
		}
		client := tui.NewClient(tuiAddr, tuiToken)
		if err := tui.Run(client); err != nil {
			fmt.Fprintf(os.Stderr, "tui failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	tuiCmd.Flags().StringVar(&tuiAddr, "addr", "http://127.0.0.1:8080", "Management API address")
	tuiCmd.Flags().StringVar(&tuiToken, "token", "", "Management API bearer token")
}
