package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/goalguard/pkg/content"
)

var extractCmd = &cobra.Command{
	Use:   "extract [url]",
	Short: "Show the text goalguard would send for a page",
	Long: `Extract the title and main text of a page exactly as the analyzer sees
it, without calling a provider.

Examples:
  goalguard extract https://example.com/article
  goalguard extract --file page.html --strategy readability`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addPageFlags(extractCmd)

	flags := extractCmd.Flags()
	flags.String("strategy", "", "main-text strategy: selectors, readability (default from config)")
	flags.Int("max-length", 0, "maximum text length in runes (default from config)")
}

// extraction is the printable result of the extract command.
type extraction struct {
	URL      string `json:"url" yaml:"url"`
	Strategy string `json:"strategy" yaml:"strategy"`
	Title    string `json:"title" yaml:"title"`
	Text     string `json:"text" yaml:"text"`
	Length   int    `json:"length" yaml:"length"`
}

func (e extraction) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n\n%s\n", e.Title, e.URL, e.Text)
	return err
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := cfg.ContentOptions()
	if s, _ := cmd.Flags().GetString("strategy"); s != "" {
		strategy, err := content.ParseStrategy(s)
		if err != nil {
			return err
		}
		opts = append(opts, content.WithStrategy(strategy))
	}
	if n, _ := cmd.Flags().GetInt("max-length"); n > 0 {
		opts = append(opts, content.WithMaxLength(n))
	}
	extractor := content.New(opts...)

	page, err := loadPage(cmd.Context(), cmd, args)
	if err != nil {
		return err
	}

	extracted := extractor.Extract(page.HTML)
	return printResult(cmd, extraction{
		URL:      page.URL,
		Strategy: string(extractor.Strategy()),
		Title:    extracted.Title,
		Text:     extracted.Text,
		Length:   len([]rune(extracted.Text)),
	})
}
