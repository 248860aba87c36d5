package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sobrinkedos/aabb-sub003/internal/app"
	"github.com/sobrinkedos/aabb-sub003/internal/audit"
	"github.com/sobrinkedos/aabb-sub003/internal/observability"
	"github.com/sobrinkedos/aabb-sub003/jobs"
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

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	auditRepo := audit.NewRepository(pool)
	scanner := audit.NewScanner(auditRepo)

	scanJob := jobs.NewAnomalyScanJob(scanner, auditRepo, logger, metrics)
	purgeJob := jobs.NewRetentionPurgeJob(auditRepo, logger, cfg.AuditRetention)

	// Hourly sweeps with a one hour window line up with the scanner's
	// per-hour thresholds.
	scanTask, err := jobs.NewAnomalyScanTask(jobs.AnomalyScanPayload{WindowHours: 1})
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}
	purgeTask, err := jobs.NewRetentionPurgeTask(jobs.RetentionPurgePayload{})
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditAnomalyScan, Handler: scanJob.Handle},
			{Type: jobs.TaskAuditRetentionPurge, Handler: purgeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 * * * *", Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
