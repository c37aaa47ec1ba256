package commands

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/goalguard/pkg/analysis"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url]",
	Short: "Analyse a page against your active goals",
	Long: `Fetch a page (or read it from a file), extract its text and ask the
configured provider how distracting it is. Uses the same settings, goals,
rate limit and analytics as the browser extension.

Examples:
  goalguard analyze https://www.youtube.com
  goalguard analyze --fetch-mode dynamic https://x.com
  goalguard analyze --file saved.html -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addPageFlags(analyzeCmd)
	analyzeCmd.Flags().Int("tab-id", 0, "tab identifier used to coalesce duplicate requests")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	page, err := loadPage(ctx, cmd, args)
	if err != nil {
		return err
	}

	tabID, _ := cmd.Flags().GetInt("tab-id")
	decision := a.svc.HandlePage(ctx, tabID, analysis.Page{URL: page.URL, HTML: page.HTML})
	return printResult(cmd, decision)
}
