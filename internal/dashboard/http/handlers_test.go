package dashboardhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/dashboard"
	"github.com/odyssey-erp/hrdash/internal/events"
	"github.com/odyssey-erp/hrdash/internal/hrmetrics"
	"github.com/odyssey-erp/hrdash/internal/rpc"
	"github.com/odyssey-erp/hrdash/internal/view"
)

type stubSource struct {
	mu       sync.Mutex
	manager  bool
	employee *hrmetrics.EmployeeDetails
	loadErr  error
	toggled  []int64
}

func (s *stubSource) DeptEmployee(context.Context) ([]hrmetrics.DeptHeadcount, error) {
	return []hrmetrics.DeptHeadcount{{Label: "Sales", Value: 4}, {Label: "R&D", Value: 6}}, nil
}

func (s *stubSource) DepartmentLeave(context.Context) (hrmetrics.DepartmentLeave, error) {
	return hrmetrics.DepartmentLeave{
		Rows:        []hrmetrics.MonthlyLeave{{Month: "Jan 2026", Leave: map[string]float64{"Sales": 2}}},
		Departments: []string{"Sales"},
	}, nil
}

func (s *stubSource) JoinResignTrends(context.Context) ([]hrmetrics.TrendSeries, error) {
	return []hrmetrics.TrendSeries{
		{Name: "Join", Values: []hrmetrics.MonthCount{{Month: "Jan 2026", Count: 3}}},
		{Name: "Resign", Values: []hrmetrics.MonthCount{{Month: "Jan 2026", Count: 1}}},
	}, nil
}

func (s *stubSource) AttritionRate(context.Context) ([]hrmetrics.AttritionPoint, error) {
	return []hrmetrics.AttritionPoint{{Month: "Jan 2026", Rate: 4.76}}, nil
}

func (s *stubSource) LeaveTrend(context.Context) ([]hrmetrics.LeaveTrendPoint, error) {
	return []hrmetrics.LeaveTrendPoint{{Month: "Jan 2026", Leave: 1}}, nil
}

func (s *stubSource) EmployeeSkill(context.Context) ([]hrmetrics.SkillProgress, error) {
	return []hrmetrics.SkillProgress{{Skill: "Go", Progress: 80}}, nil
}

func (s *stubSource) IsManager(context.Context) (bool, error) {
	return s.manager, s.loadErr
}

func (s *stubSource) EmployeeDetails(context.Context) (*hrmetrics.EmployeeDetails, error) {
	if s.employee == nil {
		return nil, s.loadErr
	}
	clone := *s.employee
	return &clone, s.loadErr
}

func (s *stubSource) Upcoming(context.Context) (hrmetrics.Upcoming, error) {
	return hrmetrics.Upcoming{}, s.loadErr
}

func (s *stubSource) AttendanceManual(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggled = append(s.toggled, id)
	return true, nil
}

func newTestRouter(t *testing.T, source dashboard.Source, bus events.Bus) http.Handler {
	t.Helper()
	engine, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, source, bus, engine, dashboard.Options{SurfaceWait: time.Second}, 2)
	handler.WithNow(func() time.Time { return time.Date(2026, time.February, 14, 9, 30, 0, 0, time.UTC) })

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithIdentity(req.Context(), auth.Identity{UserID: 3, EmployeeID: 7})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.MountRoutes(r)
	return r
}

func employeeSource() *stubSource {
	return &stubSource{employee: &hrmetrics.EmployeeDetails{ID: 7, Name: "Ada", AttendanceState: hrmetrics.CheckedOut, LeavesToday: 2}}
}

func TestDashboardPageRendersCharts(t *testing.T) {
	router := newTestRouter(t, employeeSource(), nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/dashboard", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	body := res.Body.String()
	for _, id := range dashboard.SurfaceIDs {
		if !strings.Contains(body, id) {
			t.Fatalf("expected surface %s in page", id)
		}
	}
	if !strings.Contains(body, "<svg") {
		t.Fatalf("expected inline svg in page")
	}
	if !strings.Contains(body, "Ada") {
		t.Fatalf("expected employee name in page")
	}
}

func TestChartsJSON(t *testing.T) {
	router := newTestRouter(t, employeeSource(), nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/dashboard/charts", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload struct {
		State  dashboard.Snapshot      `json:"state"`
		Charts []dashboard.ChartReport `json:"charts"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Charts) != 6 {
		t.Fatalf("expected 6 chart reports, got %d", len(payload.Charts))
	}
	for _, c := range payload.Charts {
		if c.Status != dashboard.StatusOK {
			t.Fatalf("chart %s finished with %s: %s", c.Chart, c.Status, c.Error)
		}
	}
	if payload.State.Employee == nil || payload.State.Employee.ID != 7 {
		t.Fatalf("unexpected state: %+v", payload.State)
	}
}

func TestChartSVG(t *testing.T) {
	router := newTestRouter(t, employeeSource(), nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/dashboard/charts/skillChart.svg", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("unexpected content type %q", ct)
	}

	res = httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/dashboard/charts/nope.svg", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown surface, got %d", res.Code)
	}
}

func TestExportsAndRateLimit(t *testing.T) {
	router := newTestRouter(t, employeeSource(), nil)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/dashboard/export.csv", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("csv: expected 200, got %d", res.Code)
	}
	if cd := res.Header().Get("Content-Disposition"); !strings.Contains(cd, "hr-dashboard-2026-02-14.csv") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !strings.Contains(res.Body.String(), "Sales") {
		t.Fatalf("csv missing data: %s", res.Body.String())
	}

	res = httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/dashboard/export.pdf", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("pdf: expected 200, got %d", res.Code)
	}
	if !strings.HasPrefix(res.Body.String(), "%PDF") {
		t.Fatalf("expected pdf payload")
	}

	res = httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/dashboard/export.xlsx", nil))
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected third export to be limited, got %d", res.Code)
	}
}

func TestActionStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		source *stubSource
		status int
	}{
		{name: dashboard.ActionAddLeave, source: employeeSource(), status: http.StatusOK},
		{name: "nope", source: employeeSource(), status: http.StatusNotFound},
		{name: dashboard.ActionContracts, source: employeeSource(), status: http.StatusForbidden},
		{name: dashboard.ActionPayslips, source: &stubSource{}, status: http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, tc.source, nil)
			res := httptest.NewRecorder()
			router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/actions/"+tc.name, nil))
			if res.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, res.Code, res.Body.String())
			}
		})
	}
}

func TestActionDescriptorJSON(t *testing.T) {
	router := newTestRouter(t, employeeSource(), nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/actions/"+dashboard.ActionLeavesToday, nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var action map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &action); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if action["type"] != "ir.actions.act_window" || action["res_model"] != "hr.leave" {
		t.Fatalf("unexpected action: %v", action)
	}
}

func TestToggleAttendance(t *testing.T) {
	source := employeeSource()
	bus := events.NewMemoryBus()
	defer bus.Close()
	messages := bus.Subscribe(events.TopicSignInOut, 1)

	router := newTestRouter(t, source, bus)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/hr/attendance/toggle", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var result dashboard.AttendanceResult
	if err := json.Unmarshal(res.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Toggled || result.State != hrmetrics.CheckedIn || result.Message != "Successfully Checked In" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(source.toggled) != 1 || source.toggled[0] != 7 {
		t.Fatalf("unexpected toggles: %v", source.toggled)
	}
	select {
	case msg := <-messages:
		if string(msg.Payload) != `{"mode":"checked_in"}` {
			t.Fatalf("unexpected payload %s", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected signin_signout broadcast")
	}

	req := httptest.NewRequest(http.MethodPost, "/hr/attendance/toggle", nil)
	req.Header.Set("Accept", "text/html")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for html clients, got %d", res.Code)
	}
}

func TestLoadErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: fmt.Errorf("call: %w", rpc.ErrTransport), status: http.StatusBadGateway},
		{err: &rpc.RemoteError{Code: rpc.CodeUnauthorized, Message: "authentication required"}, status: http.StatusUnauthorized},
		{err: &rpc.RemoteError{Code: rpc.CodeApplication, Message: "boom"}, status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		source := employeeSource()
		source.loadErr = tc.err
		router := newTestRouter(t, source, nil)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/hr/dashboard/charts", nil))
		if res.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, res.Code)
		}
	}
}

type gatedSource struct {
	*stubSource
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (s *gatedSource) IsManager(ctx context.Context) (bool, error) {
	s.once.Do(func() { close(s.entered) })
	select {
	case <-s.gate:
		return s.stubSource.IsManager(ctx)
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func TestRenderSurvivesCancelledConcurrentCaller(t *testing.T) {
	source := &gatedSource{stubSource: employeeSource(), gate: make(chan struct{}), entered: make(chan struct{})}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, source, nil, nil, dashboard.Options{SurfaceWait: time.Second}, 2)
	identity := auth.Identity{UserID: 3, EmployeeID: 7}

	firstCtx, cancelFirst := context.WithCancel(auth.WithIdentity(context.Background(), identity))
	firstErr := make(chan error, 1)
	go func() {
		_, err := h.render(firstCtx)
		firstErr <- err
	}()
	<-source.entered

	type result struct {
		out rendered
		err error
	}
	second := make(chan result, 1)
	go func() {
		out, err := h.render(auth.WithIdentity(context.Background(), identity))
		second <- result{out, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		if err != context.Canceled {
			t.Fatalf("expected cancelled first caller, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(source.gate)
	select {
	case res := <-second:
		if res.err != nil {
			t.Fatalf("second caller failed: %v", res.err)
		}
		if len(res.out.report.Charts) != 6 {
			t.Fatalf("expected 6 chart reports, got %d", len(res.out.report.Charts))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second caller never finished")
	}
}
