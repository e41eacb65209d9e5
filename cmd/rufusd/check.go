package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	rufus "github.com/nadnerb/rufus-scheduler"
	"github.com/nadnerb/rufus-scheduler/cronline"
)

var checkCmd = &cobra.Command{
	Use:   "check <spec>",
	Short: "Validate a schedule spec and show upcoming fire times",
	Long: `Validate a cron expression, duration string or time string.

For a cron expression the next five fire times are printed:

  rufusd check "*/5 * * * *"
  rufusd check "0 9 * * mon-fri Europe/Sofia"
  rufusd check "1h10s"
  rufusd check "2026-01-01 09:00 UTC"`,
	Args: cobra.ExactArgs(1),
	Run:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) {
	spec := args[0]

	if line, err := cronline.Parse(spec); err == nil {
		fmt.Printf("cron expression: %q (timezone %s)\n", spec, line.Location())
		t := time.Now()
		for i := 0; i < 5; i++ {
			next, err := line.NextTime(t)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("  %d. %s\n", i+1, next.Format("2006-01-02 15:04:05 MST"))
			t = next
		}
		return
	}

	if d, err := rufus.ParseDuration(spec); err == nil {
		fmt.Printf("duration: %s (%v)\n", rufus.FormatDuration(d), d)
		return
	}

	if at, err := rufus.ParseTime(spec); err == nil {
		fmt.Printf("time: %s (in %s)\n",
			at.Format("2006-01-02 15:04:05 MST"),
			rufus.FormatDuration(time.Until(at).Truncate(time.Second)))
		return
	}

	fmt.Fprintf(os.Stderr, "error: %q is not a valid cron expression, duration or time\n", spec)
	os.Exit(1)
}
