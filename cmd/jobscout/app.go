package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/logger"
	"github.com/jonathan/jobscout/internal/metrics"
	"github.com/jonathan/jobscout/internal/quota"
	"github.com/jonathan/jobscout/internal/sources"
	"github.com/jonathan/jobscout/internal/store"
)

// app holds the wired components shared by all subcommands.
type app struct {
	cfg      *config.Config
	specs    []config.SourceConfig
	log      *zap.Logger
	metrics  *metrics.Manager
	gate     *quota.Manager
	registry *sources.Registry
	store    *store.Postgres
}

// newApp loads configuration and wires the core. The database connection is
// only opened when needStore is set, so read-only commands work without one.
func newApp(ctx context.Context, needStore bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogJSON, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	specs, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	m := metrics.New(nil)
	gate := quota.NewManager(quota.WithMetrics(m))

	registry, err := sources.BuildRegistry(specs, gate, log)
	if err != nil {
		return nil, fmt.Errorf("build source registry: %w", err)
	}

	a := &app{
		cfg:      cfg,
		specs:    specs,
		log:      log,
		metrics:  m,
		gate:     gate,
		registry: registry,
	}

	if needStore {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database_url is required for this command")
		}
		st, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.store = st
	}

	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.log.Sync()
}
