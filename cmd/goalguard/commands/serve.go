package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/goalguard/internal/logger"
	"github.com/jmylchreest/goalguard/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP bridge for the browser extension",
	Long: `Serve the analysis API on a local address.

The extension's background worker posts visited pages to /v1/analyze and
manages goals and settings through the other /v1 endpoints. Expired cache
entries are swept periodically while the server runs.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("addr", "", "listen address (default 127.0.0.1:7878)")
	flags.StringSlice("allowed-origin", nil, "CORS origin patterns (repeatable)")

	_ = viper.BindPFlag("server.addr", flags.Lookup("addr"))
	_ = viper.BindPFlag("server.allowed_origins", flags.Lookup("allowed-origin"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv := server.New(a.svc, server.WithAllowedOrigins(a.cfg.Server.AllowedOrigins))
	logger.Info("starting goalguard bridge",
		"addr", a.cfg.Server.Addr,
		"store", a.store.Backend().Name(),
		"origins", a.cfg.Server.AllowedOrigins)

	// The sweeper stops with the server, including when the listener fails.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		a.svc.RunSweeper(egCtx, a.cfg.Cache.SweepInterval)
		return nil
	})
	eg.Go(func() error {
		return srv.ListenAndServe(egCtx, a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout)
	})
	return eg.Wait()
}
