package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

var (
	reportDate   string
	reportOffset int
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show logged time per issue for a week",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Any day of the week to report (YYYY-MM-DD, default today)")
	reportCmd.Flags().IntVar(&reportOffset, "offset", 0, "Weeks to move from --date")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

type issueTotal struct {
	Key     string `json:"issue"`
	Summary string `json:"summary,omitempty"`
	Minutes int64  `json:"duration_minutes"`
	seconds int64
}

// issueTotals sums work logs per issue, ordered by key.
func issueTotals(ws []model.Worklog) ([]issueTotal, int64) {
	byKey := map[string]*issueTotal{}
	var grand int64
	for _, w := range ws {
		k := issueKey(w)
		t, ok := byKey[k]
		if !ok {
			t = &issueTotal{Key: k}
			if w.Issue != nil {
				t.Summary = w.Issue.Summary
			}
			byKey[k] = t
		}
		t.seconds += w.TimeSpentSeconds
		grand += w.TimeSpentSeconds
	}
	out := make([]issueTotal, 0, len(byKey))
	for _, t := range byKey {
		t.Minutes = t.seconds / 60
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, grand
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := openApp(ctx, true)
	defer a.close()

	r, err := a.weekFor(reportDate, reportOffset)
	if err != nil {
		return err
	}
	totals, grand := issueTotals(a.load(ctx, r))
	return writeReport(os.Stdout, reportFormat, timecalc.ISOWeekLabel(r.Start), totals, grand)
}

func writeReport(out io.Writer, format, label string, totals []issueTotal, grand int64) error {
	switch format {
	case "csv":
		fmt.Fprintln(out, "issue,summary,duration_minutes")
		for _, t := range totals {
			fmt.Fprintf(out, "%s,%s,%d\n", csvEscape(t.Key), csvEscape(t.Summary), t.Minutes)
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Week         string       `json:"week"`
			Issues       []issueTotal `json:"issues"`
			TotalMinutes int64        `json:"total_minutes"`
		}{label, totals, grand / 60})
	case "md", "":
		fmt.Fprintf(out, "Week %s\n", label)
		fmt.Fprintln(out, "--------------------------------")
		for _, t := range totals {
			fmt.Fprintf(out, "%-20s%s\n", t.Key, timecalc.FormatDuration(t.seconds))
		}
		fmt.Fprintln(out, "--------------------------------")
		fmt.Fprintf(out, "%-20s%s\n", "Total", timecalc.FormatDuration(grand))
	default:
		return fmt.Errorf("unknown format %q, want md, csv or json", format)
	}
	return nil
}
