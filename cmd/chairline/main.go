package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/chairline/chairline/internal/app"
	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/observability"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/picking"
	"github.com/chairline/chairline/internal/platform/cache"
	"github.com/chairline/chairline/internal/platform/db"
	"github.com/chairline/chairline/internal/production"
	"github.com/chairline/chairline/internal/rbac"
	"github.com/chairline/chairline/internal/returns"
	"github.com/chairline/chairline/internal/shared"
	"github.com/chairline/chairline/internal/tasks"
	"github.com/chairline/chairline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	actorResolver := shared.NewActorResolver(redisClient, cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()
	guard := rbac.Middleware{Logger: logger}

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, auditLogger)
	ordersHandler := orders.NewHandler(logger, ordersService)

	pickingRepo := picking.NewRepository(dbpool)
	pickingService := picking.NewService(pickingRepo, auditLogger)
	pickingHandler := picking.NewHandler(logger, pickingService, metrics, idempotencyStore)

	productionRepo := production.NewRepository(dbpool)
	productionService := production.NewService(productionRepo, auditLogger)
	productionHandler := production.NewHandler(logger, productionService, metrics)

	returnsRepo := returns.NewRepository(dbpool)
	returnsService := returns.NewService(returnsRepo, auditLogger)
	returnsHandler := returns.NewHandler(logger, returnsService, metrics)

	tasksRepo := tasks.NewRepository(dbpool)
	tasksService := tasks.NewService(tasksRepo, auditLogger)
	tasksHandler := tasks.NewHandler(logger, tasksService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		ActorResolver:     actorResolver,
		Audit:             auditLogger,
		RBAC:              guard,
		InventoryHandler:  inventoryHandler,
		OrdersHandler:     ordersHandler,
		PickingHandler:    pickingHandler,
		ProductionHandler: productionHandler,
		ReturnsHandler:    returnsHandler,
		TasksHandler:      tasksHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
