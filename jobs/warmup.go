package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/hrdash/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Aggregates is the cache surface the dashboard jobs drive.
type Aggregates interface {
	Warm(ctx context.Context) error
	Bump(ctx context.Context) (int64, error)
}

// DashboardJobs handles the dashboard cache tasks.
type DashboardJobs struct {
	Aggregates Aggregates
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	// Timeout bounds one warmup run.
	Timeout time.Duration
}

// NewDashboardJobs wires dependencies for the dashboard task handlers.
func NewDashboardJobs(aggregates Aggregates, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardJobs {
	return &DashboardJobs{Aggregates: aggregates, Logger: logger, Metrics: metrics, Timeout: time.Minute}
}

// HandleWarmup processes TaskDashboardWarmup tasks.
func (j *DashboardJobs) HandleWarmup(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Aggregates == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload WarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("dashboard warmup: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger(TaskDashboardWarmup)
	start := time.Now()
	if payload.BumpFirst {
		if _, err := j.bump(ctx); err != nil {
			logger.Error("bump before warmup", slog.Any("error", err))
			return err
		}
	}

	timeout := j.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	warmCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := j.Aggregates.Warm(warmCtx); err != nil {
		logger.Error("warm dashboard cache", slog.Any("error", err))
		return err
	}
	logger.Info("completed dashboard warmup", slog.Duration("duration", time.Since(start)))
	return nil
}

// HandleBump processes TaskDashboardBump tasks.
func (j *DashboardJobs) HandleBump(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Aggregates == nil {
		return errors.New("dashboard bump: handler not configured")
	}
	var payload BumpPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("dashboard bump: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(TaskDashboardBump)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	version, err := j.bump(ctx)
	if err != nil {
		j.logger(TaskDashboardBump).Error("bump dashboard cache", slog.Any("error", err))
		return err
	}
	j.logger(TaskDashboardBump).Info("bumped dashboard cache", slog.Int64("version", version), slog.String("reason", payload.Reason))
	return nil
}

func (j *DashboardJobs) bump(ctx context.Context) (int64, error) {
	version, err := j.Aggregates.Bump(ctx)
	if err != nil {
		return 0, err
	}
	j.metrics().AddInvalidation()
	return version, nil
}

func (j *DashboardJobs) logger(job string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (j *DashboardJobs) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
