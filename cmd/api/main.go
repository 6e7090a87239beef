package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Cervini/reinventory-backend/api/routes"
	"github.com/Cervini/reinventory-backend/internal/campaign"
	"github.com/Cervini/reinventory-backend/internal/inventory"
	"github.com/Cervini/reinventory-backend/internal/presence"
	syncpkg "github.com/Cervini/reinventory-backend/internal/sync"
	"github.com/Cervini/reinventory-backend/internal/trade"
	"github.com/Cervini/reinventory-backend/pkg/changebus"
	"github.com/Cervini/reinventory-backend/pkg/config"
	"github.com/Cervini/reinventory-backend/pkg/db"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/metrics"
	"github.com/Cervini/reinventory-backend/pkg/migrate"
	"github.com/Cervini/reinventory-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	bus := changebus.NewRedisBus(redisClient, logg)

	registry := prometheus.NewRegistry()
	domainMetrics := metrics.NewDomainMetrics(registry)
	syncMetrics := metrics.NewSyncMetrics(registry)

	campaignRepo := campaign.NewRepository(dbClient.DB())
	inventoryRepo := inventory.NewRepository(dbClient.DB())
	tradeRepo := trade.NewRepository(dbClient.DB())

	tracker, err := presence.NewTracker(redisClient, cfg.Presence.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create presence tracker", err)
		os.Exit(1)
	}

	tradeService, err := trade.NewService(trade.ServiceParams{
		Repo:          tradeRepo,
		InventoryRepo: inventoryRepo,
		Presence:      tracker,
		Tx:            dbClient,
		Bus:           bus,
		Logger:        logg,
		Metrics:       domainMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create trade service", err)
		os.Exit(1)
	}

	campaignService, err := campaign.NewService(campaign.ServiceParams{
		Repo:          campaignRepo,
		InventoryRepo: inventoryRepo,
		Trades:        tradeService,
		Tx:            dbClient,
		Bus:           bus,
		Logger:        logg,
		Defaults:      cfg.Campaign,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create campaign service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:    inventoryRepo,
		Tx:      dbClient,
		Bus:     bus,
		Logger:  logg,
		Metrics: domainMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Registry:    registry,
		Campaigns:   campaignService,
		Inventories: inventoryService,
		Trades:      tradeService,
		Presence:    tracker,
		Loader:      syncpkg.NewLoader(campaignRepo, inventoryRepo, tradeRepo),
		Bus:         bus,
		SyncMetrics: syncMetrics,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			_ = server.Close()
		}
	}
}
