package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	clifetcher "github.com/jmylchreest/goalguard/cmd/goalguard/fetcher"
	"github.com/jmylchreest/goalguard/internal/logger"
	"github.com/jmylchreest/goalguard/pkg/fetcher"
)

// addPageFlags registers the flags shared by analyze and extract.
func addPageFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("file", "f", "", "read HTML from a file instead of fetching a URL")
	flags.String("fetch-mode", string(fetcher.ModeStatic), "fetch mode: static, dynamic, auto")
	flags.Duration("fetch-timeout", 30*time.Second, "page fetch timeout")
	flags.String("wait-for", "", "CSS selector to wait for (dynamic mode)")
}

// loadedPage is raw HTML plus where it came from.
type loadedPage struct {
	URL  string
	HTML string
}

// loadPage reads HTML from --file or fetches args[0].
func loadPage(ctx context.Context, cmd *cobra.Command, args []string) (loadedPage, error) {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return loadedPage{}, err
		}
		url := "file://" + file
		if len(args) > 0 {
			url = args[0]
		}
		return loadedPage{URL: url, HTML: string(data)}, nil
	}

	if len(args) == 0 {
		return loadedPage{}, fmt.Errorf("a URL or --file is required")
	}
	target := args[0]
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	f, err := newFetcher(cmd)
	if err != nil {
		return loadedPage{}, err
	}
	defer func() { _ = f.Close() }()

	waitFor, _ := cmd.Flags().GetString("wait-for")
	logInfo("Fetching %s (%s)", target, f.Type())
	content, err := f.Fetch(ctx, target, fetcher.Options{WaitForSelector: waitFor})
	if err != nil {
		return loadedPage{}, err
	}
	logger.Debug("page fetched", "url", target, "status", content.StatusCode, "title", content.Title)
	return loadedPage{URL: content.URL, HTML: content.HTML}, nil
}

func newFetcher(cmd *cobra.Command) (fetcher.Fetcher, error) {
	mode, _ := cmd.Flags().GetString("fetch-mode")
	timeout, _ := cmd.Flags().GetDuration("fetch-timeout")

	switch fetcher.Mode(mode) {
	case fetcher.ModeStatic, "":
		return fetcher.NewStatic(fetcher.StaticConfig{Timeout: timeout}), nil
	case fetcher.ModeDynamic:
		return clifetcher.NewDynamicFetcher(clifetcher.Config{Timeout: timeout})
	case fetcher.ModeAuto:
		static := fetcher.NewStatic(fetcher.StaticConfig{Timeout: timeout})
		return fetcher.NewAuto(static, func() (fetcher.Fetcher, error) {
			return clifetcher.NewDynamicFetcher(clifetcher.Config{Timeout: timeout})
		}), nil
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s (use 'static', 'dynamic' or 'auto')", mode)
	}
}
