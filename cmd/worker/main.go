package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/chairline/chairline/internal/app"
	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/observability"
	"github.com/chairline/chairline/internal/platform/db"
	"github.com/chairline/chairline/internal/shared"
	"github.com/chairline/chairline/internal/tasks"
	"github.com/chairline/chairline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	idempotencyStore := shared.NewIdempotencyStore(pool)
	inventoryService := inventory.NewService(inventory.NewRepository(pool))
	tasksService := tasks.NewService(tasks.NewRepository(pool), nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerIntegrity, Handler: func(ctx context.Context, _ *asynq.Task) error {
				return jobs.RunLedgerIntegrityCheck(ctx, logger, inventoryService)
			}},
			{Type: jobs.TaskReminderScan, Handler: func(ctx context.Context, _ *asynq.Task) error {
				return jobs.RunReminderScan(ctx, logger, tasksService, metrics)
			}},
			{Type: jobs.TaskIdempotencyCleanup, Handler: func(ctx context.Context, _ *asynq.Task) error {
				return jobs.RunIdempotencyCleanup(ctx, logger, idempotencyStore, cfg.IdempotencyRetention)
			}},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: jobs.NewLedgerIntegrityTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/30 * * * *", Task: jobs.NewReminderScanTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
			{Spec: "30 2 * * 0", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
