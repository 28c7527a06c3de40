package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/plaid/internal/model"
)

var issuesCmd = &cobra.Command{
	Use:   "issues [query]",
	Short: "Search issues to log work on",
	Long: `issues searches by key or text. Without a query it lists the issues you
recently worked on (offline: every known issue).`,
	RunE: runIssues,
}

var issuesAddCmd = &cobra.Command{
	Use:   "add <key> <summary>",
	Short: "Add an issue to the offline catalog",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runIssuesAdd,
}

func init() {
	issuesCmd.AddCommand(issuesAddCmd)
}

func runIssues(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := openApp(ctx, false)
	defer a.close()

	query := strings.Join(args, " ")
	var (
		issues []model.Issue
		err    error
	)
	switch {
	case query != "":
		issues, err = a.svc.SearchIssues(ctx, query)
	case a.local != nil:
		issues, err = a.local.Issues()
	default:
		issues, err = a.jira.Suggestions(ctx)
	}
	if err != nil {
		fail(err)
	}
	printIssues(issues)
	return nil
}

func runIssuesAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := openApp(ctx, false)
	defer a.close()
	if a.local == nil {
		return fmt.Errorf("issues can only be added offline; use --offline")
	}
	issue, err := a.local.AddIssue(model.Issue{Key: args[0], Summary: strings.Join(args[1:], " ")})
	if err != nil {
		fail(err)
	}
	printIssues([]model.Issue{issue})
	return nil
}

func printIssues(issues []model.Issue) {
	if len(issues) == 0 {
		_, _ = faint.Fprintln(color.Output, "No issues found.")
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 80
	key := color.New(color.Bold)
	for _, i := range issues {
		tbl.AddRow(key.Sprint(i.Key), i.Summary, faint.Sprint(i.ID))
	}
	fmt.Fprintln(color.Output, tbl)
}
