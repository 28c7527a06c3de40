package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/plaid/internal/layout"
	"github.com/Tiliavir/plaid/internal/model"
)

var (
	exportDate   string
	exportOffset int
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the work logs of a week to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDate, "date", "", "Any day of the week to export (YYYY-MM-DD, default today)")
	exportCmd.Flags().IntVar(&exportOffset, "offset", 0, "Weeks to move from --date")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := openApp(ctx, true)
	defer a.close()

	r, err := a.weekFor(exportDate, exportOffset)
	if err != nil {
		return err
	}
	ws := a.load(ctx, r)

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ws); err != nil {
			fail(fmt.Errorf("encoding JSON: %w", err))
		}
	case "md":
		printWeek(r, layout.Split(ws, r), true)
	case "csv", "":
		writeCSV(os.Stdout, ws)
	default:
		return fmt.Errorf("unknown format %q, want csv, json or md", exportFormat)
	}
	return nil
}

func writeCSV(out io.Writer, ws []model.Worklog) {
	fmt.Fprintln(out, "date,issue,summary,comment,start,end,duration_minutes,id")
	for _, w := range ws {
		summary := ""
		if w.Issue != nil {
			summary = w.Issue.Summary
		}
		fmt.Fprintf(out, "%s,%s,%s,%s,%s,%s,%d,%s\n",
			w.Started.Format("2006-01-02"),
			csvEscape(issueKey(w)),
			csvEscape(summary),
			csvEscape(w.Comment),
			w.Started.Format(time.RFC3339),
			w.End().Format(time.RFC3339),
			w.TimeSpentSeconds/60,
			csvEscape(w.ID),
		)
	}
}

// csvEscape quotes a field holding a comma, quote or line break and doubles
// its quotes.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
