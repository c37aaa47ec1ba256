package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/goalguard/pkg/cache"
)

// cacheCmd talks to a running bridge; the result cache lives in the server
// process, so there is nothing to inspect from a one-shot CLI invocation.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the result cache of a running bridge",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache occupancy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newBridgeClient()
		if err != nil {
			return err
		}
		var stats cache.Stats
		if err := c.do(cmd.Context(), "GET", "/v1/cache", &stats); err != nil {
			return err
		}
		return printResult(cmd, cacheView(stats))
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newBridgeClient()
		if err != nil {
			return err
		}
		if err := c.do(cmd.Context(), "DELETE", "/v1/cache", nil); err != nil {
			return err
		}
		logInfo("Cache cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

type cacheView cache.Stats

func (c cacheView) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d entries (%d valid, %d expired)\n", c.Total, c.Valid, c.Expired)
	return err
}
