package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/plaid/internal/editor"
	"github.com/Tiliavir/plaid/internal/geometry"
	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

var (
	logStart    string
	logDuration string
	logComment  string
	logDate     string

	editStart    string
	editDuration string
	editComment  string
	editDate     string
)

var logCmd = &cobra.Command{
	Use:   "log <issue>",
	Short: "Add a work log to an issue",
	Example: `  plaid log PLD-12 --start 09:00 --duration 1h30m --comment "review"
  plaid log PLD-12 --start "2026-03-02 14:00" --duration 45`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

var editCmd = &cobra.Command{
	Use:   "edit <issue> <id>",
	Short: "Change the start, length or comment of a work log",
	Long: `edit changes a work log found in the week of --date (default this week).
Use "plaid week --ids" to look up IDs.`,
	Args: cobra.ExactArgs(2),
	RunE: runEdit,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <issue> <id>",
	Short: "Delete a work log",
	Args:  cobra.ExactArgs(2),
	RunE:  runDelete,
}

func init() {
	logCmd.Flags().StringVar(&logStart, "start", "", "Start as HH:MM (on --date) or \"YYYY-MM-DD HH:MM\" (required)")
	logCmd.Flags().StringVar(&logDuration, "duration", "", "Length as minutes or e.g. 1h30m (required)")
	logCmd.Flags().StringVar(&logComment, "comment", "", "Work log comment")
	logCmd.Flags().StringVar(&logDate, "date", "", "Day for an HH:MM start (YYYY-MM-DD, default today)")
	_ = logCmd.MarkFlagRequired("start")
	_ = logCmd.MarkFlagRequired("duration")

	editCmd.Flags().StringVar(&editStart, "start", "", "New start as HH:MM (same day) or \"YYYY-MM-DD HH:MM\"")
	editCmd.Flags().StringVar(&editDuration, "duration", "", "New length as minutes or e.g. 1h30m")
	editCmd.Flags().StringVar(&editComment, "comment", "", "New comment")
	editCmd.Flags().StringVar(&editDate, "date", "", "Any day of the week holding the work log (YYYY-MM-DD)")
}

// newEditor returns an editor over r without a grid; commands drive it
// through its keyboard operations.
func (a *app) newEditor(r model.DateRange) *editor.Editor {
	mapper := geometry.NewMapper(geometry.NewZoom().PixelsPerMinute(), r.Len())
	return editor.New(a.svc, mapper, r, editor.Options{Logger: a.log})
}

func runLog(cmd *cobra.Command, args []string) error {
	day := time.Now()
	if logDate != "" {
		d, err := parseDate(logDate)
		if err != nil {
			return err
		}
		day = d
	}
	start, err := parseStart(logStart, day)
	if err != nil {
		return err
	}
	minutes, err := parseMinutes(logDuration)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a := openApp(ctx, true)
	defer a.close()

	issue, err := a.svc.GetIssue(ctx, args[0])
	if err != nil {
		fail(err)
	}
	if issue == nil {
		fail(fmt.Errorf("issue %s not found", args[0]))
	}

	r := model.NewDateRange(start, start)
	ed := a.newEditor(r)
	ed.Open(model.Worklog{Started: start, TimeSpentSeconds: int64(minutes) * 60})
	steps := []error{ed.SelectIssue(issue), ed.SetComment(logComment)}
	for _, err := range steps {
		if err != nil {
			fail(err)
		}
	}
	w, err := ed.Save(ctx)
	if err != nil {
		fail(err)
	}
	printSaved("Logged", w)
	a.warnOutsideHours(w)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	if editStart == "" && editDuration == "" && !cmd.Flags().Changed("comment") {
		return fmt.Errorf("nothing to change, pass --start, --duration or --comment")
	}

	ctx := context.Background()
	a := openApp(ctx, true)
	defer a.close()

	week, err := a.weekFor(editDate, 0)
	if err != nil {
		return err
	}
	a.load(ctx, week)
	w, ok := a.svc.List().Find(args[1])
	if !ok {
		fail(fmt.Errorf("work log %s not found in %s; pass --date", args[1], week))
	}
	if w.IssueID == "" {
		w.IssueID = args[0]
	}

	target := w.Started
	if editStart != "" {
		if target, err = parseStart(editStart, w.Started); err != nil {
			return err
		}
	}
	from, to := w.Started, target
	if to.Before(from) {
		from, to = to, from
	}
	ed := a.newEditor(model.NewDateRange(from, to))
	ed.Open(w)

	d, _ := ed.Draft()
	steps := []error{
		ed.MoveDays(timecalc.DaysBetween(w.Started, target)),
		ed.Nudge(timecalc.MinuteOfDay(target) - timecalc.MinuteOfDay(d.Start)),
	}
	if editDuration != "" {
		minutes, err := parseMinutes(editDuration)
		if err != nil {
			return err
		}
		steps = append(steps, ed.Resize(minutes-d.DurationMinutes))
	}
	if cmd.Flags().Changed("comment") {
		steps = append(steps, ed.SetComment(editComment))
	}
	for _, err := range steps {
		if err != nil {
			fail(err)
		}
	}
	saved, err := ed.Save(ctx)
	if err != nil {
		fail(err)
	}
	printSaved("Updated", saved)
	a.warnOutsideHours(saved)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := openApp(ctx, false)
	defer a.close()

	if err := a.svc.Delete(ctx, model.Worklog{IssueID: args[0], ID: args[1]}); err != nil {
		fail(err)
	}
	fmt.Printf("Deleted work log %s of %s.\n", args[1], args[0])
	return nil
}

func printSaved(verb string, w model.Worklog) {
	fmt.Fprintf(color.Output, "%s %s on %s %s-%s (%s)\n",
		verb,
		color.New(color.Bold).Sprint(issueKey(w)),
		w.Started.Format("Mon 02 Jan"),
		timecalc.FormatClock(w.Started),
		timecalc.FormatClock(w.End()),
		timecalc.FormatDuration(w.TimeSpentSeconds),
	)
	if w.ID != "" {
		_, _ = faint.Fprintf(color.Output, "id %s\n", w.ID)
	}
}

func (a *app) warnOutsideHours(w model.Worklog) {
	h := a.prefs.WorkingHours()
	start := timecalc.MinuteOfDay(w.Started)
	end := start + int(w.TimeSpentSeconds/60)
	if start >= h.StartMinutes && end <= h.EndMinutes {
		return
	}
	day := timecalc.StartOfDay(w.Started)
	fmt.Fprintf(os.Stderr, "Warning: work log lies outside working hours %s-%s\n",
		timecalc.FormatClock(timecalc.AtMinute(day, h.StartMinutes)),
		timecalc.FormatClock(timecalc.AtMinute(day, h.EndMinutes)))
}
