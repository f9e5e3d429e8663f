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

	"github.com/odyssey-erp/hrdash/internal/app"
	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/dashboard"
	dashboardhttp "github.com/odyssey-erp/hrdash/internal/dashboard/http"
	"github.com/odyssey-erp/hrdash/internal/events"
	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
	"github.com/odyssey-erp/hrdash/internal/observability"
	"github.com/odyssey-erp/hrdash/internal/view"
	"github.com/odyssey-erp/hrdash/jobs"
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

	overrides, err := app.LoadDashboardOverrides(cfg.DashboardConfig)
	if err != nil {
		logger.Error("load dashboard config", slog.Any("error", err))
		os.Exit(1)
	}

	aggregates, err := app.OpenAggregates(ctx, cfg, logger)
	if err != nil {
		logger.Error("open aggregates", slog.Any("error", err))
		os.Exit(1)
	}
	defer aggregates.Close()

	if err := aggregates.Cache.ListenForInvalidation(ctx, hrmetrics.BumpChannel); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	var bus events.Bus
	if aggregates.Redis != nil {
		bus = events.NewRedisBus(aggregates.Redis, logger)
	} else {
		memoryBus := events.NewMemoryBus()
		defer memoryBus.Close()
		bus = memoryBus
	}

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	dashboardHandler := dashboardhttp.NewHandler(logger, aggregates.Service, bus, templates, dashboard.Options{
		SettleDelay: cfg.SettleDelay,
		SurfaceWait: cfg.SurfaceWait,
		Overrides:   overrides,
	}, cfg.ExportLimit)
	dashboardHandler.WithObserver(metrics)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTTTL)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Auth:             auth.NewMiddleware(logger, authService),
		RPCServer:        aggregates.RPCServer,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobs.NewHandler(inspector, jobClient, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("in_process_rpc", cfg.InProcessRPC()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
