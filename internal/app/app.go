// Package app wires configuration, catalog, backends, and the HTTP server
// into one runnable unit.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"phonepick/internal/archive"
	"phonepick/internal/catalog"
	"phonepick/internal/compare"
	"phonepick/internal/config"
	"phonepick/internal/llm"
	"phonepick/internal/llmclient"
	"phonepick/internal/logging"
	"phonepick/internal/server"
)

// Version is stamped by the build; "dev" outside release builds.
var Version = "dev"

type App struct {
	server   *server.Server
	registry *llmclient.Registry
	log      *zap.Logger
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	cat, err := catalog.Load(ctx, catalog.Options{
		CSVPath: cfg.CatalogCSV,
		DSN:     cfg.CatalogDSN,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	registry := llmclient.NewRegistry()
	if err := llmclient.RegisterDefaults(registry, llmclient.Credentials{
		GeminiAPIKey: cfg.GeminiAPIKey,
		GroqAPIKey:   cfg.GroqAPIKey,
	}); err != nil {
		return nil, fmt.Errorf("register backends: %w", err)
	}

	// Surface missing credentials at startup instead of on the first
	// request; the server still starts so /health and /api/v1/phones work.
	if err := registry.Preflight(cfg.Models); err != nil {
		log.Warn("backend preflight failed; comparisons will be rejected until fixed", zap.Error(err))
	}

	chain := llm.NewChain(registry, cfg.Models, cfg.AttemptTimeout, log)

	var store archive.Store
	if cfg.Archive.Enabled {
		store, err = archive.NewS3Store(archive.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}
		log.Info("archive enabled", zap.String("endpoint", cfg.Archive.Endpoint), zap.String("bucket", cfg.Archive.Bucket))
	} else {
		store = archive.NewMemoryStore()
	}

	svc, err := compare.NewService(compare.ServiceConfig{
		Catalog:   cat,
		Chain:     chain,
		Archive:   store,
		CacheSize: cfg.CacheSize,
		MaxPhones: cfg.MaxPhones,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("init compare service: %w", err)
	}

	mux := server.NewMux(server.Deps{
		Compare:  svc,
		Catalog:  cat,
		Archive:  store,
		Chain:    chain,
		Registry: registry,
		Version:  Version,
		Logger:   log,
	})
	srv := server.New(cfg.Port, mux, log)

	log.Info("app initialized",
		zap.String("version", Version),
		zap.String("env", cfg.Env),
		zap.Strings("backends", cfg.Models),
		zap.Int("phones", cat.Len()))

	return &App{
		server:   srv,
		registry: registry,
		log:      log,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.registry.CloseAll(); cerr != nil && err == nil {
		err = cerr
	}
	_ = a.log.Sync()
	return err
}

func (a *App) Logger() *zap.Logger { return a.log }
