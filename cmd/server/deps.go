package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/liamcoop/creditreports/cache"
	"github.com/liamcoop/creditreports/extract"
	"github.com/liamcoop/creditreports/ingest"
	"github.com/liamcoop/creditreports/internal/config"
	"github.com/liamcoop/creditreports/internal/database"
	"github.com/liamcoop/creditreports/internal/logger"
	"github.com/liamcoop/creditreports/migrations"
	"github.com/liamcoop/creditreports/screening"
	"github.com/liamcoop/creditreports/store"
)

// dependencies are the long-lived collaborators behind the HTTP server.
type dependencies struct {
	Service  *ingest.Service
	Screener *screening.Engine
	closers  []func() error
}

// Close releases database and cache connections in reverse order of creation.
func (d *dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}

	st, err := buildStore(ctx, cfg, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}

	rc, err := buildCache(ctx, cfg, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}

	panSource, err := extract.ParsePANSource(cfg.Extraction.PANSource)
	if err != nil {
		deps.Close()
		return nil, err
	}

	rules := make([]screening.Rule, 0, len(cfg.Screening.Rules))
	for _, rule := range cfg.Screening.Rules {
		rules = append(rules, screening.Rule{Name: rule.Name, Expression: rule.Expression})
	}
	screener, err := screening.NewEngine(rules)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to load screening rules: %w", err)
	}

	deps.Screener = screener
	deps.Service = ingest.NewService(st,
		ingest.WithCache(rc),
		ingest.WithExtractor(extract.New(extract.WithPANSource(panSource))),
		ingest.WithMaxBytes(cfg.Upload.MaxBytes),
	)
	return deps, nil
}

func buildStore(ctx context.Context, cfg *config.Config, deps *dependencies) (store.ReportStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Warn("using in-memory report store; reports are lost on restart")
		return store.NewInMemoryReportStore(), nil

	case config.StoragePostgres:
		if cfg.Database.AutoMigrate {
			if err := migrations.Up(cfg.Database.URL); err != nil {
				return nil, err
			}
			logger.Info("database migrations applied")
		}

		db, err := database.OpenPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, db.Close)
		return store.NewPostgresReportStore(db), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func buildCache(ctx context.Context, cfg *config.Config, deps *dependencies) (cache.ReportCache, error) {
	cacheCfg := cache.Config{TTL: cfg.Cache.TTL}

	switch cfg.Cache.Driver {
	case config.CacheNone, "":
		return cache.NoopCache{}, nil

	case config.CacheMemory:
		return cache.NewInMemoryCache(cacheCfg), nil

	case config.CacheRedis:
		client, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, client.Close)
		return cache.NewRedisCache(client, cacheCfg, logger.Logger), nil

	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
