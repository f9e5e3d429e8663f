package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup pre-populates the aggregate cache.
	TaskDashboardWarmup = "hr:dashboard:warmup"
	// TaskDashboardBump invalidates every cached aggregate.
	TaskDashboardBump = "hr:dashboard:bump"
	// WarmupCron is the default schedule of TaskDashboardWarmup.
	WarmupCron = "*/30 * * * *"
)

// WarmupPayload describes a cache warmup run.
type WarmupPayload struct {
	// BumpFirst invalidates the cache before warming it.
	BumpFirst bool `json:"bump_first,omitempty"`
}

// BumpPayload describes a cache invalidation.
type BumpPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewWarmupTask constructs the warmup task.
func NewWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal warmup payload: %w", err)
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// NewBumpTask constructs the cache bump task.
func NewBumpTask(payload BumpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal bump payload: %w", err)
	}
	return asynq.NewTask(TaskDashboardBump, data), nil
}
