// Package main is the entry point for the stockdocs API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockdocs/internal/config"
	"stockdocs/internal/domain/crm"
	"stockdocs/internal/domain/documents"
	"stockdocs/internal/domain/reports"
	"stockdocs/internal/domain/reservations"
	"stockdocs/internal/domain/stock"
	"stockdocs/internal/domain/stores"
	v1 "stockdocs/internal/infrastructure/http/v1"
	"stockdocs/internal/infrastructure/storage/postgres"
	"stockdocs/internal/integrations/bitrix"
	"stockdocs/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stockdocs server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	documentRepo := postgres.NewDocumentRepo(txManager)
	stockRepo := postgres.NewStockRepo(txManager)
	storeRepo := postgres.NewStoreRepo(txManager)
	reservationRepo := postgres.NewReservationRepo(txManager)
	reportRepo := postgres.NewReportRepo(txManager)

	// --- CRM integration ---
	var deals crm.Deals
	var catalog crm.Catalog
	stages := crm.StageConfig{
		StageNew: cfg.Bitrix.StageNew,
		StageWon: cfg.Bitrix.StageWon,
	}
	if cfg.Bitrix.Enabled() {
		client := bitrix.NewClient(bitrix.Config{
			BaseURL:      cfg.Bitrix.BaseURL,
			OAuthURL:     cfg.Bitrix.OAuthURL,
			ClientID:     cfg.Bitrix.ClientID,
			ClientSecret: cfg.Bitrix.ClientSecret,
			AccessToken:  cfg.Bitrix.AccessToken,
			RefreshToken: cfg.Bitrix.RefreshToken,
		})
		deals = client
		catalog = client
		log.Info("bitrix integration enabled")
	} else {
		log.Warn("bitrix integration not configured, deal guard and catalog lookups disabled")
	}

	// --- Domain services ---
	validator := stock.NewValidator(stock.NewCalculator(stockRepo))
	numberer := postgres.NewDocumentNumberer(txManager)

	documentServices := make(map[documents.Kind]*documents.Service, len(documents.Kinds()))
	for _, kind := range documents.Kinds() {
		documentServices[kind] = documents.NewService(kind, documentRepo, validator, deals, stages, txManager, numberer)
	}

	storeService := stores.NewService(storeRepo, txManager)
	reservationService := reservations.NewService(reservationRepo, txManager)
	reportService := reports.NewService(reportRepo, catalog)

	// --- Router and server ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool.Pool,
		Logger:       log,
		Documents:    documentServices,
		Stores:       storeService,
		Reservations: reservationService,
		Reports:      reportService,
		Catalog:      catalog,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
