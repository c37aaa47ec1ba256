package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/goalguard/internal/output"
	"github.com/jmylchreest/goalguard/pkg/store"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show or reset usage counters",
}

var analyticsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show usage counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		return printResult(cmd, analyticsView(a.svc.Analytics(cmd.Context())))
	},
}

var analyticsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Zero the usage counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		reset, err := a.svc.ResetAnalytics(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(cmd, analyticsView(reset))
	},
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsShowCmd, analyticsResetCmd)
}

// analyticsView renders counters with thousands separators and rates.
type analyticsView store.Analytics

func (a analyticsView) WriteText(w io.Writer) error {
	return output.Table(w, [][]string{
		{"COUNTER", "VALUE", "RATE"},
		{"analysed", humanize.Comma(a.TotalRequests), ""},
		{"blocked", humanize.Comma(a.BlockedPages), percent(a.BlockedPages, a.TotalRequests)},
		{"bypassed", humanize.Comma(a.BypassedPages), percent(a.BypassedPages, a.BlockedPages)},
	})
}

func percent(n, of int64) string {
	if of == 0 {
		return "-"
	}
	return fmt.Sprintf("%s%%", humanize.FtoaWithDigits(float64(n)*100/float64(of), 1))
}
