// Package config loads goalguard's runtime configuration from viper.
//
// Values come from (highest first) flags bound by the CLI, GOALGUARD_*
// environment variables, the config file and the defaults below. User
// preferences edited from the extension (goals, threshold, provider, key)
// are not configuration; they live in the store.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/goalguard/pkg/cache"
	"github.com/jmylchreest/goalguard/pkg/content"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "GOALGUARD"

// Store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the full runtime configuration.
type Config struct {
	Debug bool `mapstructure:"debug"`
	Quiet bool `mapstructure:"quiet"`

	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Content  ContentConfig  `mapstructure:"content"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

// StoreConfig selects the persistence backend. An empty path uses the
// driver's default location under the XDG data directory.
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=file sqlite memory"`
	Path   string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type AnalysisConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type CacheConfig struct {
	Duration      time.Duration `mapstructure:"duration" validate:"gt=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gte=0"`
}

type ContentConfig struct {
	MaxLength int    `mapstructure:"max_length" validate:"gt=0"`
	Strategy  string `mapstructure:"strategy" validate:"omitempty,oneof=selectors readability"`
}

// LLMConfig tunes provider clients. BaseURL maps a provider name to an
// alternative endpoint (a proxy or a local mock).
type LLMConfig struct {
	MaxRetries  int               `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	BaseURL     map[string]string `mapstructure:"base_url"`
	HTTPReferer string            `mapstructure:"http_referer"`
	AppTitle    string            `mapstructure:"app_title"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Store: StoreConfig{Driver: DriverFile},
		Server: ServerConfig{
			Addr:            "127.0.0.1:7878",
			AllowedOrigins:  []string{"chrome-extension://*", "moz-extension://*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Analysis: AnalysisConfig{Timeout: 10 * time.Second},
		Cache: CacheConfig{
			Duration:      cache.DefaultDuration,
			SweepInterval: 10 * time.Minute,
		},
		Content: ContentConfig{
			MaxLength: content.DefaultMaxLength,
			Strategy:  string(content.StrategySelectors),
		},
		LLM: LLMConfig{
			MaxRetries:  1,
			BaseURL:     map[string]string{},
			HTTPReferer: "https://github.com/jmylchreest/goalguard",
			AppTitle:    "goalguard",
		},
	}
}

// Setup registers defaults and environment handling on v. Nested keys map
// to variables with dots replaced by underscores, e.g. server.addr is read
// from GOALGUARD_SERVER_ADDR.
func Setup(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("analysis.timeout", d.Analysis.Timeout)
	v.SetDefault("cache.duration", d.Cache.Duration)
	v.SetDefault("cache.sweep_interval", d.Cache.SweepInterval)
	v.SetDefault("content.max_length", d.Content.MaxLength)
	v.SetDefault("content.strategy", d.Content.Strategy)
	v.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	v.SetDefault("llm.http_referer", d.LLM.HTTPReferer)
	v.SetDefault("llm.app_title", d.LLM.AppTitle)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.LLM.BaseURL == nil {
		cfg.LLM.BaseURL = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enums.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ContentOptions converts the content section to extractor options.
func (c Config) ContentOptions() []content.Option {
	strategy, err := content.ParseStrategy(c.Content.Strategy)
	if err != nil {
		strategy = content.StrategySelectors
	}
	return []content.Option{
		content.WithMaxLength(c.Content.MaxLength),
		content.WithStrategy(strategy),
	}
}
