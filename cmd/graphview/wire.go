package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hanpama/graphview/internal/backend"
	"github.com/hanpama/graphview/internal/backend/sparqlhttp"
	"github.com/hanpama/graphview/internal/backend/sqlstore"
	"github.com/hanpama/graphview/internal/browser"
	"github.com/hanpama/graphview/internal/config"
	"github.com/hanpama/graphview/internal/executor"
	"github.com/hanpama/graphview/internal/views"
	"go.uber.org/zap"
)

// openBackend builds the configured backend. sqlstore datasets listed under
// load are imported before it is returned.
func openBackend(ctx context.Context, cfg config.Backend, log *zap.Logger) (backend.Backend, error) {
	switch cfg.Kind {
	case config.BackendSPARQLHTTP:
		provider := sparqlhttp.NewStaticEndpoints(map[string][]string{
			sparqlhttp.RoleQuery:     cfg.QueryEndpoints,
			sparqlhttp.RoleReasoning: cfg.ReasoningEndpoints,
		})
		opts := []sparqlhttp.Option{
			sparqlhttp.WithProvider(provider),
			sparqlhttp.WithMaxConnsPerEndpoint(cfg.MaxConns),
			sparqlhttp.WithRateLimit(cfg.RateLimit, cfg.Burst),
		}
		if cfg.RequestTimeout > 0 {
			opts = append(opts, sparqlhttp.WithRequestTimeout(cfg.RequestTimeout))
		}
		if cfg.Username != "" {
			opts = append(opts, sparqlhttp.WithBasicAuth(cfg.Username, cfg.Password))
		}
		return sparqlhttp.New(opts...), nil

	case config.BackendSQLStore, "":
		var (
			store *sqlstore.Store
			err   error
		)
		if cfg.Database == "" {
			store, err = sqlstore.OpenInMemory()
		} else {
			store, err = sqlstore.Open(cfg.Database)
		}
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		for _, path := range cfg.Load {
			n, err := loadFile(ctx, store, path, "")
			if err != nil {
				store.Close()
				return nil, err
			}
			log.Info("loaded dataset", zap.String("path", path), zap.Int("statements", n))
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Kind)
	}
}

func loadFile(ctx context.Context, store *sqlstore.Store, path, graph string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := store.Load(ctx, f, graph)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", path, err)
	}
	return n, nil
}

func newCatalog(cfg config.Config) (*views.Catalog, error) {
	disc, err := views.NewFileSystemDiscovery(cfg.Views)
	if err != nil {
		return nil, err
	}
	return views.NewCatalog(disc,
		views.WithDefaultView(cfg.DefaultView),
		views.WithCacheSize(cfg.CacheSize),
	)
}

func newBrowser(cfg config.Config, catalog *views.Catalog, b backend.Backend, record bool) *browser.Browser {
	exec := executor.NewExecutor(b,
		executor.WithMaxExecutions(cfg.MaxExecutions),
		executor.WithRecord(record),
	)
	return browser.New(catalog, exec,
		browser.WithFallback(cfg.Fallback),
		browser.WithDefaultLimit(cfg.DefaultLimit),
		browser.WithMaxLimit(cfg.MaxLimit),
		browser.WithDebug(cfg.Debug),
		browser.WithReasoning(cfg.Reasoning),
	)
}
