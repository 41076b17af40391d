package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/equip-manager/equip-console/internal/observability"
	"github.com/equip-manager/equip-console/internal/platform/httpx"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/web"
)

// Mounter is implemented by every section handler.
type Mounter interface {
	MountRoutes(r chi.Router)
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	// Track runs on page requests before the handlers, e.g. active section tracking.
	Track func(http.Handler) http.Handler
	// Pages are mounted behind the page middleware.
	Pages []Mounter
	// Live is mounted without request timeout or compression.
	Live Mounter
	// Health reports whether the backend answers; nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := params.Health(ctx); err != nil {
				params.Logger.Warn("health check", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, httpx.Health{Status: "degraded", Backend: err.Error()})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, httpx.Health{Status: "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// static files skip sessions, CSRF and rate limiting
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)

		if params.Live != nil {
			params.Live.MountRoutes(r)
		}

		r.Group(func(r chi.Router) {
			for _, mw := range PageMiddleware(params.Config) {
				r.Use(mw)
			}
			if params.Track != nil {
				r.Use(params.Track)
			}
			for _, page := range params.Pages {
				if page != nil {
					page.MountRoutes(r)
				}
			}
		})
	})

	return r
}

// staticTypes pins the content type of the embedded assets; slim images ship
// without a mime.types file.
var staticTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".js":  "text/javascript; charset=utf-8",
	".svg": "image/svg+xml",
}

// staticCacheHandler wraps a file server with Cache-Control and content type headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if typ, ok := staticTypes[path.Ext(r.URL.Path)]; ok {
			w.Header().Set("Content-Type", typ)
		}
		next.ServeHTTP(w, r)
	})
}
