package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/plaid/internal/prefs"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change preferences",
	Long: `prefs lists every preference with its value. Working hours are minutes
after midnight, working days are 0 (Sunday) to 6 (Saturday).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := openPrefs()
		defer p.Close()

		tbl := uitable.New()
		tbl.Separator = "  "
		for _, k := range p.Keys() {
			v, err := p.GetString(k)
			if err != nil {
				fail(err)
			}
			tbl.AddRow(color.New(color.Bold).Sprint(k), v)
		}
		fmt.Fprintln(color.Output, tbl)
		return nil
	},
}

var prefsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := openPrefs()
		defer p.Close()
		v, err := p.GetString(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Change one preference",
	Example: "  plaid prefs set WORKING_HOURS_START_MINUTES 480\n  plaid prefs set HIDE_WEEKEND true",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := openPrefs()
		defer p.Close()
		return p.SetString(args[0], args[1])
	},
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)
}

func openPrefs() *prefs.Preferences {
	cfg := loadConfig()
	return prefs.Open(cfg.DataDir, nil)
}
