package main

import (
	"context"
	"fmt"
	"log"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"Transflower/internal/auth"
	"Transflower/internal/catalog"
	"Transflower/internal/config"
	"Transflower/pkg/kit"
)

func main() {
	service := "catalog"

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open store failed", zap.Error(err), zap.String("backend", cfg.Backend))
	}
	defer closeStore()

	s := &catalog.Server{Store: store, Log: logger}
	var extra []func(chi.Router)

	if cfg.WritesProtected() {
		tokens := auth.NewTokenMaker(cfg.JWTSecret)
		s.WriteGuard = auth.RequireScope(tokens, auth.ScopeCatalogWrite)

		trusted, err := kit.ParseTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			logger.Fatal("trusted proxies", zap.Error(err))
		}

		as := &auth.Server{
			Log:            logger,
			JWT:            tokens,
			Creds:          auth.Credentials{User: cfg.AdminUser, Hash: []byte(cfg.AdminPasswordHash)},
			TrustedProxies: trusted,
		}
		extra = append(extra, as.Register)
	} else {
		logger.Warn("CATALOG_JWT_SECRET not set, catalog writes are unauthenticated")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := catalog.HTTPDeps{
		Log:            logger,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		HSTS:           cfg.IsProduction(),
		Extra:          extra,
	}
	h := catalog.NewHandler(s, deps)

	if err := kit.RunHTTPServer(ctx, ":"+cfg.Port, h, logger); err != nil {
		logger.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return catalog.NewMemStore(catalog.DefaultProducts()...), func() {}, nil

	case config.BackendPostgres:
		db, err := catalog.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		ps := catalog.NewPostgresStore(db)
		if err := ps.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return ps, func() { _ = db.Close() }, nil

	case config.BackendFile:
		fs := catalog.NewFileStore(cfg.DataFile)
		var seed []catalog.Product
		if cfg.Seed {
			seed = catalog.DefaultProducts()
		}
		if err := fs.Init(ctx, seed); err != nil {
			return nil, nil, err
		}
		logger.Info("catalog file ready", zap.String("path", fs.Path()))
		return fs, func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
