package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/plaid/internal/layout"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

var (
	gapsDate   string
	gapsOffset int
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "List the unlogged stretches of your working hours",
	Long: `gaps lists the parts of the working hours (see "plaid prefs") that no work
log covers, up to the current time.`,
	Args: cobra.NoArgs,
	RunE: runGaps,
}

func init() {
	gapsCmd.Flags().StringVar(&gapsDate, "date", "", "Any day of the week to check (YYYY-MM-DD, default today)")
	gapsCmd.Flags().IntVar(&gapsOffset, "offset", 0, "Weeks to move from --date")
}

func runGaps(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := openApp(ctx, true)
	defer a.close()

	r, err := a.weekFor(gapsDate, gapsOffset)
	if err != nil {
		return err
	}
	days := layout.Split(a.load(ctx, r), r)
	gaps := layout.AllGaps(days, a.prefs.WorkingHours(), time.Now())

	tbl := uitable.New()
	tbl.Separator = "  "
	var missing int64
	for i, d := range days {
		for _, g := range gaps[i] {
			w := g.Worklog
			missing += w.TimeSpentSeconds
			tbl.AddRow(
				d.Date.Format("Mon 02 Jan"),
				fmt.Sprintf("%s-%s", timecalc.FormatClock(w.Started), timecalc.FormatClock(w.End())),
				timecalc.FormatDuration(w.TimeSpentSeconds),
			)
		}
	}
	if missing == 0 {
		_, _ = faint.Fprintf(color.Output, "No gaps in %s.\n", r)
		return nil
	}
	fmt.Fprintln(color.Output, tbl)
	_, _ = color.New(color.FgHiRed).Fprintf(color.Output, "\nUnlogged %s\n", timecalc.FormatDuration(missing))
	return nil
}
