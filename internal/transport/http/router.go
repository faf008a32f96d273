// Package httptransport assembles the chi router: the shared middleware
// chain, health and metrics endpoints, public forms and the guarded admin API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"safenest/internal/platform/metrics"
	"safenest/pkg/platform/httputil"
	"safenest/pkg/platform/middleware/admin"
	"safenest/pkg/platform/middleware/metadata"
	"safenest/pkg/platform/middleware/request"
	"safenest/pkg/platform/middleware/requesttime"
)

// PublicRoutes registers routes anyone can call.
type PublicRoutes interface {
	RegisterPublic(r chi.Router)
}

// AdminRoutes registers routes relative to /api/admin, behind the session guard.
type AdminRoutes interface {
	RegisterAdmin(r chi.Router)
}

// SignInRoutes registers the unguarded sign-in route under /api/admin.
type SignInRoutes interface {
	RegisterSignIn(r chi.Router)
}

// HealthCheck reports whether one backing service is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Authenticator  admin.SessionAuthenticator
	RequestTimeout time.Duration
	HealthChecks   []HealthCheck
}

type Routes struct {
	Public []PublicRoutes
	SignIn SignInRoutes
	Admin  []AdminRoutes
}

func NewRouter(cfg Config, routes Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.Logger(cfg.Logger))
	r.Use(cfg.Metrics.Middleware)
	r.Use(request.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", healthHandler(cfg.HealthChecks, cfg.Logger))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, p := range routes.Public {
		p.RegisterPublic(r)
	}

	r.Route("/api/admin", func(r chi.Router) {
		if routes.SignIn != nil {
			routes.SignIn.RegisterSignIn(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminSession(cfg.Authenticator, cfg.Logger))
			for _, a := range routes.Admin {
				a.RegisterAdmin(r)
			}
		})
	})
	return r
}

func healthHandler(checks []HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "check", c.Name, "error", err)
				status[c.Name] = "unavailable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[c.Name] = "ok"
		}
		httputil.WriteJSON(w, code, status)
	}
}
