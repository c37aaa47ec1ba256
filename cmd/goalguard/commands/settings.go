package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/goalguard/internal/output"
	"github.com/jmylchreest/goalguard/pkg/llm"
	"github.com/jmylchreest/goalguard/pkg/ratelimit"
	"github.com/jmylchreest/goalguard/pkg/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change provider and blocking settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings (API key masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		return printResult(cmd, settingsView(a.svc.Settings(cmd.Context()).Redacted()))
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings; only the flags given are updated",
	Long: `Change settings. Flags that are not given keep their current value.

Examples:
  goalguard settings set --threshold 60
  goalguard settings set --provider anthropic --api-key sk-ant-... --model claude-3-5-haiku-latest
  goalguard settings set --enabled=false`,
	Args: cobra.NoArgs,
	RunE: runSettingsSet,
}

var settingsDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect a provider from OPENROUTER_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY",
	Args:  cobra.NoArgs,
	RunE:  runSettingsDetect,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsDetectCmd)

	flags := settingsSetCmd.Flags()
	flags.Bool("enabled", true, "enable page analysis")
	flags.Int("threshold", 70, "confidence (0-100) at or above which pages are blocked")
	flags.String("provider", "", "LLM provider: openrouter, openai, anthropic")
	flags.String("model", "", "model name (empty for the provider default)")
	flags.String("api-key", "", "provider API key")
	flags.Int("rpm", 20, "maximum provider requests per minute")
	flags.Bool("cache", true, "cache results for an hour")

	settingsDetectCmd.Flags().Bool("save", false, "store the detected provider and key")
}

// patchFromFlags builds a patch from the flags the user actually set.
func patchFromFlags(flags *pflag.FlagSet) (store.SettingsPatch, error) {
	var p store.SettingsPatch
	var err error

	if flags.Changed("enabled") {
		v, _ := flags.GetBool("enabled")
		p.Enabled = &v
	}
	if flags.Changed("threshold") {
		v, _ := flags.GetInt("threshold")
		p.ConfidenceThreshold = &v
	}
	if flags.Changed("provider") {
		v, _ := flags.GetString("provider")
		provider := store.Provider(v)
		if !store.ValidProvider(provider) {
			err = fmt.Errorf("unknown provider %q (available: %v)", v, store.Providers)
		}
		p.Provider = &provider
	}
	if flags.Changed("model") {
		v, _ := flags.GetString("model")
		p.Model = &v
	}
	if flags.Changed("api-key") {
		v, _ := flags.GetString("api-key")
		p.APIKey = &v
	}
	if flags.Changed("rpm") {
		v, _ := flags.GetInt("rpm")
		p.RequestsPerMinute = &v
	}
	if flags.Changed("cache") {
		v, _ := flags.GetBool("cache")
		p.EnableCache = &v
	}
	return p, err
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	patch, err := patchFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if patch == (store.SettingsPatch{}) {
		return fmt.Errorf("nothing to change; see --help for the available flags")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if patch.APIKey != nil {
		provider := string(a.svc.Settings(cmd.Context()).Provider)
		if patch.Provider != nil {
			provider = string(*patch.Provider)
		}
		if err := llm.ValidateKeyFormat(provider, *patch.APIKey); err != nil {
			logInfo("Warning: %v", err)
		}
	}

	updated, err := a.svc.UpdateSettings(cmd.Context(), patch)
	if err != nil {
		return err
	}
	return printResult(cmd, settingsView(updated.Redacted()))
}

// detection is the printable result of settings detect.
type detection struct {
	Provider string `json:"provider" yaml:"provider"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	Model    string `json:"model" yaml:"model"`
	Saved    bool   `json:"saved" yaml:"saved"`
}

func (d detection) WriteText(w io.Writer) error {
	if d.Provider == "" {
		_, err := fmt.Fprintln(w, "No provider API key found in the environment.")
		return err
	}
	_, err := fmt.Fprintf(w, "Detected %s (%s), default model %s", d.Provider, d.APIKey, d.Model)
	if err == nil && d.Saved {
		_, err = fmt.Fprint(w, ", saved")
	}
	if err == nil {
		_, err = fmt.Fprintln(w)
	}
	return err
}

func runSettingsDetect(cmd *cobra.Command, args []string) error {
	provider, key := llm.DetectProvider()
	d := detection{
		Provider: provider,
		APIKey:   store.MaskKey(key),
		Model:    llm.DefaultModel(provider),
	}

	save, _ := cmd.Flags().GetBool("save")
	if save && provider != "" {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		p := store.Provider(provider)
		empty := ""
		if _, err := a.svc.UpdateSettings(cmd.Context(), store.SettingsPatch{
			Provider: &p,
			APIKey:   &key,
			Model:    &empty,
		}); err != nil {
			return err
		}
		d.Saved = true
	}
	return printResult(cmd, d)
}

// settingsView renders settings as a key/value table.
type settingsView store.Settings

func (s settingsView) WriteText(w io.Writer) error {
	model := s.Model
	if model == "" {
		model = llm.DefaultModel(string(s.Provider)) + " (default)"
	}
	lastRequest := "never"
	if !s.RateLimit.LastRequestTime.IsZero() {
		lastRequest = humanize.Time(s.RateLimit.LastRequestTime)
	}
	interval := ratelimit.MinInterval(s.RateLimit.RequestsPerMinute)

	return output.Table(w, [][]string{
		{"SETTING", "VALUE"},
		{"enabled", fmt.Sprint(s.Enabled)},
		{"threshold", fmt.Sprintf("%d%%", s.ConfidenceThreshold)},
		{"provider", string(s.Provider)},
		{"model", model},
		{"api_key", s.APIKey},
		{"rate_limit", fmt.Sprintf("%d/min (one request every %s)", s.RateLimit.RequestsPerMinute, interval)},
		{"last_request", lastRequest},
		{"cache", fmt.Sprint(s.EnableCache)},
	})
}
