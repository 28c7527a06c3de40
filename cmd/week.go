package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/plaid/internal/layout"
	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

var (
	weekDate   string
	weekOffset int
	weekIDs    bool
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the work logs of a week, day by day",
	Args:  cobra.NoArgs,
	RunE:  runWeek,
}

func init() {
	weekCmd.Flags().StringVar(&weekDate, "date", "", "Any day of the week to show (YYYY-MM-DD, default today)")
	weekCmd.Flags().IntVar(&weekOffset, "offset", 0, "Weeks to move from --date, e.g. -1 for the previous week")
	weekCmd.Flags().BoolVar(&weekIDs, "ids", false, "Show work log IDs")
}

func runWeek(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := openApp(ctx, true)
	defer a.close()

	r, err := a.weekFor(weekDate, weekOffset)
	if err != nil {
		return err
	}
	days := layout.Split(a.load(ctx, r), r)
	printWeek(r, days, weekIDs)
	return nil
}

var (
	titleColor = color.New(color.Bold, color.Underline)
	faint      = color.New(color.Faint)
	todayColor = color.New(color.Bold, color.FgHiYellow)
)

func printWeek(r model.DateRange, days []layout.Day, ids bool) {
	_, _ = titleColor.Fprintf(color.Output, "%s (%s)\n", r, timecalc.ISOWeekLabel(r.Start))
	now := time.Now()
	for _, d := range days {
		head := titleColor
		if timecalc.SameDay(d.Date, now) {
			head = todayColor
		}
		_, _ = head.Fprint(color.Output, d.Date.Format("Mon 02 Jan"))
		if total := d.TotalLabel(); total != "" {
			_, _ = faint.Fprintf(color.Output, "  %s", total)
		}
		fmt.Fprintln(color.Output)

		if len(d.Slots) == 0 {
			_, _ = faint.Fprintln(color.Output, "  none")
			continue
		}
		fmt.Fprintln(color.Output, slotTable(d.Slots, ids))
	}
	fmt.Fprintf(color.Output, "\nTotal %s\n", timecalc.FormatDuration(layout.Total(days)))
}

func slotTable(slots []layout.Slot, ids bool) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	for _, s := range slots {
		w := s.Worklog
		row := []any{
			"",
			fmt.Sprintf("%s-%s", timecalc.FormatClock(w.Started), timecalc.FormatClock(w.End())),
			timecalc.FormatDuration(w.TimeSpentSeconds),
			issueKey(w),
			w.Comment,
		}
		if s.Columns > 1 {
			row[0] = faint.Sprintf("%d/%d", s.Column+1, s.Columns)
		}
		if ids {
			row = append(row, faint.Sprint(w.ID))
		}
		tbl.AddRow(row...)
	}
	return tbl
}

func issueKey(w model.Worklog) string {
	if w.Issue != nil {
		return w.Issue.Key
	}
	return w.IssueID
}
