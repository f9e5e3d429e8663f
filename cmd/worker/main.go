package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/hrdash/internal/app"
	"github.com/odyssey-erp/hrdash/internal/auth"
	jobmetrics "github.com/odyssey-erp/hrdash/internal/jobs"
	"github.com/odyssey-erp/hrdash/jobs"
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

	aggregates, err := app.OpenAggregates(ctx, cfg, logger)
	if err != nil {
		logger.Error("open aggregates", slog.Any("error", err))
		os.Exit(1)
	}
	defer aggregates.Close()

	// Remote procedures authenticate the worker with a service token.
	if !cfg.InProcessRPC() {
		token, err := auth.NewService(cfg.JWTSecret, cfg.JWTTTL).Issue(auth.Identity{Name: "hrdash-worker"})
		if err != nil {
			logger.Error("issue worker token", slog.Any("error", err))
			os.Exit(1)
		}
		ctx = auth.WithToken(ctx, token)
	}

	dashboardJobs := jobs.NewDashboardJobs(aggregates.Service, logger, jobmetrics.NewMetrics(nil))

	warmupTask, err := jobs.NewWarmupTask(jobs.WarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDashboardWarmup, Handler: withBase(ctx, dashboardJobs.HandleWarmup)},
			{Type: jobs.TaskDashboardBump, Handler: withBase(ctx, dashboardJobs.HandleBump)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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

// withBase carries the service token of base into every task context.
func withBase(base context.Context, fn asynq.HandlerFunc) asynq.HandlerFunc {
	token := auth.TokenFromContext(base)
	if token == "" {
		return fn
	}
	return func(ctx context.Context, t *asynq.Task) error {
		return fn(auth.WithToken(ctx, token), t)
	}
}
