package main

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Transflower/internal/config"
	"Transflower/internal/storefront"
	"Transflower/pkg/kit"
)

func main() {
	service := "storefront"

	cfg, err := config.LoadStorefront()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	h, err := storefront.NewHandler(storefront.Deps{
		CatalogURL: cfg.CatalogURL,
		WebRoot:    cfg.WebRoot,
	}, storefront.HTTPDeps{
		Log:            logger,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		HSTS:           cfg.IsProduction(),
	})
	if err != nil {
		logger.Fatal("init storefront handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(context.Background(), ":"+cfg.Port, h, logger); err != nil {
		logger.Fatal("http server stopped", zap.Error(err))
	}
}
