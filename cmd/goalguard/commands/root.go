// Package commands implements the CLI commands for goalguard.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/goalguard/internal/config"
	"github.com/jmylchreest/goalguard/internal/logger"
	"github.com/jmylchreest/goalguard/internal/output"
)

var rootCmd = &cobra.Command{
	Use:   "goalguard",
	Short: "Block pages that distract from your goals",
	Long: `Goalguard asks an LLM how likely a web page is to distract you from
the goals you set, and blocks it above a confidence threshold.

The serve command runs the local bridge the browser extension talks to.
The other commands manage goals and settings, or run a single analysis
from the terminal.

Examples:
  # Add a goal and configure a provider
  goalguard goals add "Finish the quarterly report"
  goalguard settings set --provider openrouter --api-key sk-or-v1-...

  # Check a page without the extension
  goalguard analyze https://news.ycombinator.com

  # Run the bridge for the extension
  goalguard serve --addr 127.0.0.1:7878`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.goalguard.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")
	flags.StringP("output", "o", string(output.FormatText), "output format: text, json, jsonl, yaml")
	flags.String("store", "", "store driver: file, sqlite, memory")
	flags.String("store-path", "", "store location (default under the XDG data directory)")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log.json", flags.Lookup("log-json"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("store.driver", flags.Lookup("store"))
	_ = viper.BindPFlag("store.path", flags.Lookup("store-path"))
}

func initConfig() {
	config.Setup(viper.GetViper())

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".goalguard")
		viper.SetConfigType("yaml")
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logError("%v", err)
	}
	return err
}

// loadConfig decodes the configuration and initialises logging.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, err
	}
	logger.Init(logger.Options{
		Debug: cfg.Debug,
		Quiet: cfg.Quiet,
		JSON:  cfg.Log.JSON,
	})
	return cfg, nil
}

// outputFormat returns the validated --output format.
func outputFormat() (output.Format, error) {
	return output.ParseFormat(viper.GetString("output"))
}

// printResult writes data to stdout in the selected format.
func printResult(cmd *cobra.Command, data any) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	return output.Print(cmd.OutOrStdout(), format, data)
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
