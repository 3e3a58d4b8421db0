package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/arrears"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/metrics"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/migrate"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "arrears-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "arrears-worker"

	logg = logger.New(logger.Options{
		ServiceName: "arrears-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	arrearsService, err := arrears.NewService(arrears.NewRepository(dbClient.DB()), cfg.Loan, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create arrears service", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Logger:   logg,
		Scanner:  arrearsService,
		Lock:     redisClient,
		Metrics:  metrics.NewWorkerMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Arrears.ScanInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create arrears worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"serviceKind":   cfg.Service.Kind,
		"scan_interval": cfg.Arrears.ScanInterval.String(),
	})
	logg.Info(ctx, "starting arrears worker")

	metricsServer := &http.Server{
		Addr:    cfg.Arrears.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer metricsServer.Close()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "arrears worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "arrears worker shutting down gracefully")
}
