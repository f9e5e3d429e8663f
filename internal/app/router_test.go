package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/observability"
	"github.com/odyssey-erp/hrdash/internal/rpc"
	"github.com/odyssey-erp/hrdash/jobs"
)

type testRouter struct {
	handler http.Handler
	auth    *auth.Service
}

func newRouter(t *testing.T) testRouter {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authService := auth.NewService("router-secret", time.Hour)

	server := rpc.NewServer(logger)
	server.Register("hr.employee", "check_user_group", func(ctx context.Context, _ rpc.Call) (any, error) {
		id, ok := auth.FromContext(ctx)
		return ok && id.Manager, nil
	})

	handler := NewRouter(RouterParams{
		Logger:     logger,
		Config:     &Config{AppEnv: "development", AppRequestTimeout: 5 * time.Second},
		Auth:       auth.NewMiddleware(logger, authService),
		RPCServer:  server,
		JobHandler: jobs.NewHandler(nil, nil, logger),
		Metrics:    observability.NewMetrics(),
	})
	return testRouter{handler: handler, auth: authService}
}

func (tr testRouter) token(t *testing.T, id auth.Identity) string {
	t.Helper()
	token, err := tr.auth.Issue(id)
	require.NoError(t, err)
	return token
}

func TestHealthzAndRequestID(t *testing.T) {
	tr := newRouter(t)
	res := httptest.NewRecorder()
	tr.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
	_, err := uuid.Parse(res.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, inbound)
	res = httptest.NewRecorder()
	tr.handler.ServeHTTP(res, req)
	assert.Equal(t, inbound, res.Header().Get(RequestIDHeader))
}

func TestRootRedirectsToDashboard(t *testing.T) {
	tr := newRouter(t)
	res := httptest.NewRecorder()
	tr.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/hr/dashboard", res.Header().Get("Location"))
}

func TestJobsRequireManager(t *testing.T) {
	tr := newRouter(t)

	res := httptest.NewRecorder()
	tr.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	req := httptest.NewRequest(http.MethodGet, "/jobs/health", nil)
	req.Header.Set("Authorization", "Bearer "+tr.token(t, auth.Identity{UserID: 4, EmployeeID: 2}))
	res = httptest.NewRecorder()
	tr.handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/jobs/health", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tr.token(t, auth.Identity{UserID: 1, Manager: true})})
	res = httptest.NewRecorder()
	tr.handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRPCOverRouter(t *testing.T) {
	tr := newRouter(t)
	ts := httptest.NewServer(tr.handler)
	defer ts.Close()

	token := tr.token(t, auth.Identity{UserID: 1, Manager: true})
	client := rpc.NewClient(ts.URL, time.Second, rpc.WithTokenSource(func(context.Context) string { return token }))
	var manager bool
	require.NoError(t, client.Call(context.Background(), "hr.employee", "check_user_group", nil, &manager))
	assert.True(t, manager)

	anonymous := rpc.NewClient(ts.URL, time.Second)
	err := anonymous.Call(context.Background(), "hr.employee", "check_user_group", nil, &manager)
	assert.True(t, rpc.IsTransport(err))
}

func TestMetricsEndpoint(t *testing.T) {
	tr := newRouter(t)
	res := httptest.NewRecorder()
	tr.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	res = httptest.NewRecorder()
	tr.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `hrdash_http_requests_total{code="200",route="/healthz"}`)
}
