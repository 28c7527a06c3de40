package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/plaid/internal/planner"
	"github.com/Tiliavir/plaid/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive week grid",
	Long: `ui shows the week as a grid of work logs. Click a gap or press "a" to add,
drag a work log to move it, drag its first or last row to resize it. Hold
shift, ctrl or alt while dragging to snap to 15, 60 or 1 minutes.

Log output goes to ~/.plaid/plaid.log while the grid is open.`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		fail(err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "plaid.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		fail(fmt.Errorf("opening log file: %w", err))
	}
	defer logFile.Close()
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := openApp(ctx, true)
	defer a.close()

	pl := planner.New(a.svc, a.prefs, planner.Options{Logger: a.log})
	defer pl.Close()
	go pl.Run(ctx)

	m := tui.New(pl, tui.Options{Context: ctx})
	defer m.Close()
	pl.SetUser(a.user)

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
