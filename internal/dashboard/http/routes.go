package dashboardhttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/hrdash/internal/auth"
	"github.com/odyssey-erp/hrdash/internal/platform/httpx"
)

// MountRoutes registers the dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.exportLimit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit exceeded")
		}),
	)

	r.Get("/hr/dashboard", h.handleDashboard)
	r.Get("/hr/dashboard/charts", h.handleCharts)
	r.Get("/hr/dashboard/charts/{surface}.svg", h.handleChartSVG)
	r.Get("/hr/actions/{name}", h.handleAction)
	r.Post("/hr/attendance/toggle", h.handleToggle)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/hr/dashboard/export.csv", h.handleCSV)
		gr.Get("/hr/dashboard/export.xlsx", h.handleXLSX)
		gr.Get("/hr/dashboard/export.pdf", h.handlePDF)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if id, ok := auth.FromContext(r.Context()); ok && id.UserID != 0 {
		return "user:" + strconv.FormatInt(id.UserID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
