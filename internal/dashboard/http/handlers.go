// Package dashboardhttp serves the HR dashboard over HTTP.
package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/chart"
	"github.com/odyssey-erp/hrdash/internal/dashboard"
	"github.com/odyssey-erp/hrdash/internal/dashboard/export"
	"github.com/odyssey-erp/hrdash/internal/events"
	"github.com/odyssey-erp/hrdash/internal/platform/httpx"
	"github.com/odyssey-erp/hrdash/internal/rpc"
	"github.com/odyssey-erp/hrdash/internal/view"
)

const requestTimeout = 10 * time.Second

// ChartObserver records chart operation outcomes.
type ChartObserver interface {
	ObserveChart(chart, status string)
}

// Handler coordinates HTTP requests for the HR dashboard.
type Handler struct {
	logger      *slog.Logger
	source      dashboard.Source
	bus         events.Bus
	templates   *view.Engine
	observer    ChartObserver
	opts        dashboard.Options
	exportLimit int
	renders     singleflight.Group
	csvPool     sync.Pool
	now         func() time.Time
}

// NewHandler constructs the dashboard HTTP handler. exportLimit is the number
// of exports a user may request per minute.
func NewHandler(logger *slog.Logger, source dashboard.Source, bus events.Bus, templates *view.Engine, opts dashboard.Options, exportLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if exportLimit <= 0 {
		exportLimit = 10
	}
	h := &Handler{
		logger:      logger,
		source:      source,
		bus:         bus,
		templates:   templates,
		opts:        opts,
		exportLimit: exportLimit,
		now:         time.Now,
	}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// WithObserver records every finished chart operation on obs.
func (h *Handler) WithObserver(obs ChartObserver) {
	h.observer = obs
}

// ChartView is one chart as shown on the page.
type ChartView struct {
	Surface string
	Chart   string
	Status  dashboard.Status
	Spec    chart.Spec
	SVG     template.HTML
}

// PageData is the dashboard page view model.
type PageData struct {
	State  dashboard.Snapshot
	Charts []ChartView
}

type rendered struct {
	snapshot dashboard.Snapshot
	report   dashboard.Report
	charts   []ChartView
}

// specs returns the drawn chart specs in page order.
func (r rendered) specs() []chart.Spec {
	out := make([]chart.Spec, 0, len(r.charts))
	for _, c := range r.charts {
		if c.Status == dashboard.StatusOK || c.Status == dashboard.StatusEmpty {
			out = append(out, c.Spec)
		}
	}
	return out
}

func (h *Handler) render(ctx context.Context) (rendered, error) {
	key := "anonymous"
	if id, ok := auth.FromContext(ctx); ok {
		key = strconv.FormatInt(id.UserID, 10)
	}
	// The shared render outlives any single caller; each caller stops waiting
	// when its own context ends.
	results := h.renders.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), requestTimeout)
		defer cancel()
		return h.renderOnce(shared)
	})
	select {
	case <-ctx.Done():
		return rendered{}, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return rendered{}, res.Err
		}
		return res.Val.(rendered), nil
	}
}

func (h *Handler) renderOnce(ctx context.Context) (rendered, error) {
	surfaces := dashboard.NewSurfaces()
	canvases := make(map[string]*dashboard.Canvas, len(dashboard.SurfaceIDs))
	for _, id := range dashboard.SurfaceIDs {
		canvas := &dashboard.Canvas{}
		canvases[id] = canvas
		surfaces.Attach(id, canvas)
	}
	ctrl := h.controller(surfaces, nil)
	if err := ctrl.Load(ctx); err != nil {
		return rendered{}, err
	}

	host := dashboard.NewHost()
	reports := ctrl.Bind(ctx, host)
	host.Mounted()
	var report dashboard.Report
	select {
	case report = <-reports:
	case <-ctx.Done():
		return rendered{}, ctx.Err()
	}

	out := rendered{snapshot: ctrl.State().Snapshot(), report: report}
	for _, c := range report.Charts {
		if h.observer != nil {
			h.observer.ObserveChart(c.Chart, string(c.Status))
		}
		for _, surface := range c.Surfaces {
			view := ChartView{Surface: surface, Chart: c.Chart, Status: c.Status}
			if frame, ok := canvases[surface].Frame(); ok {
				view.Spec = frame.Spec
				view.SVG = frame.SVG
			}
			out.charts = append(out.charts, view)
		}
	}
	return out, nil
}

func (h *Handler) controller(surfaces *dashboard.Surfaces, dispatcher dashboard.ActionDispatcher) *dashboard.Controller {
	ctrl := dashboard.NewController(h.logger, h.source, dashboard.NewState(), surfaces, h.bus, dispatcher, h.opts)
	ctrl.WithNow(h.now)
	return ctrl
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	out, err := h.render(ctx)
	if err != nil {
		h.handleLoadError(w, err)
		return
	}
	user := ""
	if out.snapshot.Employee != nil {
		user = out.snapshot.Employee.Name
	}
	data := view.TemplateData{
		Title:       "HR Dashboard",
		User:        user,
		CurrentPath: r.URL.Path,
		Data:        PageData{State: out.snapshot, Charts: out.charts},
	}
	if err := h.templates.Render(w, "pages/dashboard.html", data); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleCharts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	out, err := h.render(ctx)
	if err != nil {
		h.handleLoadError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"state":  out.snapshot,
		"charts": out.report.Charts,
	})
}

func (h *Handler) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	surface := chi.URLParam(r, "surface")
	known := false
	for _, id := range dashboard.SurfaceIDs {
		if id == surface {
			known = true
			break
		}
	}
	if !known {
		httpx.Problem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("unknown chart surface %q", surface))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	out, err := h.render(ctx)
	if err != nil {
		h.handleLoadError(w, err)
		return
	}
	for _, c := range out.charts {
		if c.Surface != surface {
			continue
		}
		if c.SVG == "" {
			httpx.Problem(w, http.StatusBadGateway, "Chart Unavailable", fmt.Sprintf("chart %s finished with status %s", c.Chart, c.Status))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		if _, err := w.Write([]byte(c.SVG)); err != nil {
			h.logError("stream svg", err)
		}
		return
	}
	httpx.Problem(w, http.StatusNotFound, "Not Found", "chart not rendered")
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ctrl := h.controller(nil, dashboard.DispatcherFunc(func(_ context.Context, action dashboard.Action) error {
		httpx.JSON(w, http.StatusOK, action)
		return nil
	}))
	if err := ctrl.Load(ctx); err != nil {
		h.handleLoadError(w, err)
		return
	}
	if _, err := ctrl.RunAction(ctx, name); err != nil {
		switch {
		case errors.Is(err, dashboard.ErrUnknownAction):
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
		case errors.Is(err, dashboard.ErrNotManager):
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrForbidden, err))
		case errors.Is(err, dashboard.ErrNoEmployee):
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, err))
		default:
			h.handleServerError(w, "run action", err)
		}
	}
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ctrl := h.controller(nil, nil)
	if err := ctrl.Load(ctx); err != nil {
		h.handleLoadError(w, err)
		return
	}
	result, err := ctrl.ToggleAttendance(ctx)
	if err != nil {
		if errors.Is(err, dashboard.ErrNoEmployee) {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrConflict, err))
			return
		}
		h.handleLoadError(w, err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/hr/dashboard", http.StatusSeeOther)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	out, err := h.render(ctx)
	if err != nil {
		h.handleLoadError(w, err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()
	if err := export.WriteCSV(buf, out.specs()); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	h.attach(w, "text/csv; charset=utf-8", "csv", buf.Bytes())
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	out, err := h.render(ctx)
	if err != nil {
		h.handleLoadError(w, err)
		return
	}
	data, err := export.XLSX(out.specs())
	if err != nil {
		h.handleServerError(w, "write xlsx", err)
		return
	}
	h.attach(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", data)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	out, err := h.render(ctx)
	if err != nil {
		h.handleLoadError(w, err)
		return
	}
	report := export.Report{Title: "HR Dashboard", GeneratedAt: h.now(), Charts: out.specs()}
	if out.snapshot.Employee != nil {
		report.Employee = out.snapshot.Employee.Name
	}
	data, err := export.PDF(report)
	if err != nil {
		h.handleServerError(w, "render pdf", err)
		return
	}
	h.attach(w, "application/pdf", "pdf", data)
}

func (h *Handler) attach(w http.ResponseWriter, contentType, ext string, data []byte) {
	filename := fmt.Sprintf("hr-dashboard-%s.%s", h.now().Format("2006-01-02"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(data); err != nil {
		h.logError("stream "+ext, err)
	}
}

func (h *Handler) handleLoadError(w http.ResponseWriter, err error) {
	var remote *rpc.RemoteError
	switch {
	case rpc.IsTransport(err):
		h.logError("load dashboard", err)
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "aggregate service unreachable")
	case errors.As(err, &remote) && remote.Code == rpc.CodeUnauthorized:
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUnauthorized, remote.Message))
	case errors.As(err, &remote) && remote.Code == rpc.CodeForbidden:
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrForbidden, remote.Message))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "dashboard load timed out")
	default:
		h.handleServerError(w, "load dashboard", err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, action string, err error) {
	h.logError(action, err)
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func (h *Handler) logError(action string, err error) {
	h.logger.Error("dashboard http", slog.String("action", action), slog.Any("error", err))
}
