package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/MaiyoDenis/imarisha-loans-sub003/api/routes"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/arrears"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/dashboard"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/interest"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/inventory"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/ledger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/loans"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/members"
	"github.com/MaiyoDenis/imarisha-loans-sub003/internal/products"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/config"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/db"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/logger"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/migrate"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/outbox"
	"github.com/MaiyoDenis/imarisha-loans-sub003/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	conn := dbClient.DB()
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	ledgerService, err := ledger.NewService(dbClient, ledger.NewRepository(conn), cfg.Loan, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	loanService, err := loans.NewService(loans.ServiceParams{
		Client:    dbClient,
		Repo:      loans.NewRepository(conn),
		Engine:    interest.NewEngine(),
		Inventory: inventoryService,
		Ledger:    ledgerService,
		Events:    events,
		Policy:    cfg.Loan,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create loan service", err)
		os.Exit(1)
	}

	memberService, err := members.NewService(dbClient, members.NewRepository(conn), ledgerService, events, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create member service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.NewRepository(conn), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	arrearsService, err := arrears.NewService(arrears.NewRepository(conn), cfg.Loan, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create arrears service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(dashboard.NewRepository(conn), arrearsService, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			memberService,
			ledgerService,
			loanService,
			productService,
			dashboardService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
