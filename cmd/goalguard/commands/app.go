package commands

import (
	"context"
	"fmt"

	"github.com/jmylchreest/goalguard/internal/config"
	"github.com/jmylchreest/goalguard/internal/logger"
	"github.com/jmylchreest/goalguard/pkg/analysis"
	"github.com/jmylchreest/goalguard/pkg/cache"
	"github.com/jmylchreest/goalguard/pkg/content"
	"github.com/jmylchreest/goalguard/pkg/llm"
	"github.com/jmylchreest/goalguard/pkg/store"
	"github.com/jmylchreest/goalguard/pkg/store/filestore"
	"github.com/jmylchreest/goalguard/pkg/store/sqlitestore"
)

// app holds the components every data command needs.
type app struct {
	cfg   config.Config
	store *store.Store
	svc   *analysis.Service
}

// newApp loads configuration, opens the store and wires the service.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:   cfg,
		store: st,
		svc:   newService(cfg, st),
	}, nil
}

// Close closes the store.
func (a *app) Close() error {
	return a.store.Close()
}

// openStore creates the store for the configured driver.
func openStore(ctx context.Context, sc config.StoreConfig) (*store.Store, error) {
	var backend store.Backend

	switch sc.Driver {
	case config.DriverMemory:
		backend = store.NewMemory()

	case config.DriverSQLite:
		path := sc.Path
		if path == "" {
			p, err := sqlitestore.DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		b, err := sqlitestore.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		backend = b

	case config.DriverFile, "":
		path := sc.Path
		if path == "" {
			p, err := filestore.DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		b, err := filestore.New(path)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		backend = b

	default:
		return nil, fmt.Errorf("unknown store driver: %s", sc.Driver)
	}

	logger.Debug("store opened", "driver", backend.Name(), "path", sc.Path)
	return store.New(backend), nil
}

// newService builds the analyzer and service from configuration.
func newService(cfg config.Config, st *store.Store) *analysis.Service {
	llmCfg := llm.DefaultConfig()
	llmCfg.MaxRetries = cfg.LLM.MaxRetries
	llmCfg.HTTPReferer = cfg.LLM.HTTPReferer
	llmCfg.AppTitle = cfg.LLM.AppTitle

	opts := []analysis.Option{
		analysis.WithSettingsWriter(st),
		analysis.WithProviderConfig(llmCfg),
		analysis.WithTimeout(cfg.Analysis.Timeout),
		analysis.WithCache(cache.New[analysis.Result](cache.WithDuration(cfg.Cache.Duration))),
	}
	for provider, url := range cfg.LLM.BaseURL {
		opts = append(opts, analysis.WithBaseURL(provider, url))
	}

	return analysis.NewService(st, analysis.NewAnalyzer(opts...),
		analysis.WithExtractor(content.New(cfg.ContentOptions()...)))
}
