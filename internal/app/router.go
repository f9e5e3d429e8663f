package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/hrdash/internal/auth"
	dashboardhttp "github.com/odyssey-erp/hrdash/internal/dashboard/http"
	"github.com/odyssey-erp/hrdash/internal/observability"
	"github.com/odyssey-erp/hrdash/internal/platform/httpx"
	"github.com/odyssey-erp/hrdash/internal/rpc"
	"github.com/odyssey-erp/hrdash/jobs"
	"github.com/odyssey-erp/hrdash/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Auth             *auth.Middleware
	RPCServer        *rpc.Server
	DashboardHandler *dashboardhttp.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	// RPCLimit is the number of RPC calls one user may issue per minute.
	RPCLimit int
}

// NewRouter constructs the chi.Router with dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hr/dashboard", http.StatusSeeOther)
	})

	r.Group(func(r chi.Router) {
		if params.Auth != nil {
			r.Use(params.Auth.Require)
		}
		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(r)
		}
		if params.RPCServer != nil {
			limit := params.RPCLimit
			if limit <= 0 {
				limit = 600
			}
			r.With(httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(userKey))).
				Method(http.MethodPost, rpc.CallPath, params.RPCServer)
		}
		if params.JobHandler != nil {
			r.With(requireManager).Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// requireManager rejects callers outside the HR manager group.
func requireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || !id.Manager {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "manager access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userKey(r *http.Request) (string, error) {
	if id, ok := auth.FromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(id.UserID, 10), nil
	}
	return httprate.KeyByIP(r)
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
