package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/hrdash/internal/jobs"
)

type stubAggregates struct {
	warmed  int
	bumped  int
	warmErr error
	order   []string
}

func (s *stubAggregates) Warm(context.Context) error {
	s.warmed++
	s.order = append(s.order, "warm")
	return s.warmErr
}

func (s *stubAggregates) Bump(context.Context) (int64, error) {
	s.bumped++
	s.order = append(s.order, "bump")
	return int64(s.bumped + 1), nil
}

func newJobs(agg Aggregates) *DashboardJobs {
	return NewDashboardJobs(agg, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func TestHandleWarmup(t *testing.T) {
	agg := &stubAggregates{}
	task, err := NewWarmupTask(WarmupPayload{BumpFirst: true})
	require.NoError(t, err)
	require.NoError(t, newJobs(agg).HandleWarmup(context.Background(), task))
	assert.Equal(t, []string{"bump", "warm"}, agg.order)
}

func TestHandleWarmupPropagatesFailure(t *testing.T) {
	agg := &stubAggregates{warmErr: errors.New("rpc down")}
	task, err := NewWarmupTask(WarmupPayload{})
	require.NoError(t, err)
	err = newJobs(agg).HandleWarmup(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, 0, agg.bumped)
}

func TestHandleWarmupRejectsBadPayload(t *testing.T) {
	err := newJobs(&stubAggregates{}).HandleWarmup(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleBump(t *testing.T) {
	agg := &stubAggregates{}
	task, err := NewBumpTask(BumpPayload{Reason: "test"})
	require.NoError(t, err)
	require.NoError(t, newJobs(agg).HandleBump(context.Background(), task))
	assert.Equal(t, 1, agg.bumped)
}

type recordingEnqueuer struct {
	tasks    []string
	payloads []string
	err      error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task.Type())
	r.payloads = append(r.payloads, string(task.Payload()))
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault, Type: task.Type()}, nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHandlerRoutes(t *testing.T) {
	enq := &recordingEnqueuer{}
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, NewClientWith(enq), nil)
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":0,"failed":0}`, res.Body.String())

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/jobs/warmup", nil))
	require.Equal(t, http.StatusAccepted, res.Code)
	assert.True(t, strings.Contains(res.Body.String(), TaskDashboardWarmup))

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/jobs/bump", nil))
	require.Equal(t, http.StatusAccepted, res.Code)
	assert.Equal(t, []string{TaskDashboardWarmup, TaskDashboardBump}, enq.tasks)
}

func TestHandlerDuplicateWarmup(t *testing.T) {
	h := NewHandler(nil, NewClientWith(&recordingEnqueuer{err: asynq.ErrDuplicateTask}), nil)
	r := chi.NewRouter()
	h.MountRoutes(r)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/warmup", nil))
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestHandlerHealthUnavailable(t *testing.T) {
	h := NewHandler(stubInspector{err: errors.New("redis down")}, nil, nil)
	r := chi.NewRouter()
	h.MountRoutes(r)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/bump", nil))
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestHandlerDecodesPayload(t *testing.T) {
	enq := &recordingEnqueuer{}
	h := NewHandler(nil, NewClientWith(enq), nil)
	r := chi.NewRouter()
	h.MountRoutes(r)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/bump", strings.NewReader(`{"reason":"payroll import"}`)))
	require.Equal(t, http.StatusAccepted, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/warmup", strings.NewReader(`{"bump_first":true}`)))
	require.Equal(t, http.StatusAccepted, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/warmup", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, res.Code)

	require.Len(t, enq.payloads, 2)
	assert.JSONEq(t, `{"reason":"payroll import"}`, enq.payloads[0])
	assert.JSONEq(t, `{"bump_first":true}`, enq.payloads[1])
}
