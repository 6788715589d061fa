package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dairymart/dairymart-backend/api"
	"github.com/dairymart/dairymart-backend/api/routes"
	"github.com/dairymart/dairymart-backend/internal/engine"
	"github.com/dairymart/dairymart-backend/pkg/config"
	"github.com/dairymart/dairymart-backend/pkg/db"
	"github.com/dairymart/dairymart-backend/pkg/instance"
	"github.com/dairymart/dairymart-backend/pkg/logger"
	"github.com/dairymart/dairymart-backend/pkg/migrate"
	"github.com/dairymart/dairymart-backend/pkg/pubsub"
	"github.com/dairymart/dairymart-backend/pkg/redis"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var pubsubClient *pubsub.Client
	if cfg.PubSub.Enabled(cfg.GCP) {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
	} else {
		logg.Info(ctx, "pubsub not configured; delivering order notifications inline")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eng, err := engine.New(ctx, engine.Params{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Processed:  redisClient,
		PubSub:     pubsubClient,
		Registerer: registry,
	})
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}
	defer eng.Close()

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:            dbClient,
		Redis:         redisClient,
		Gatherer:      registry,
		Inventory:     eng.Resolver,
		Cart:          eng.Cart,
		Orders:        eng.Orders,
		Payments:      eng.Payments,
		Shipping:      eng.Shipping,
		Notifications: eng.Notifications,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	if err := api.NewServer(addr, router, logg).Run(ctx); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
