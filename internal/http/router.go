// Package httpapi assembles the public HTTP surface from the domain handlers.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"sparkfish/internal/platform/config"
	"sparkfish/internal/platform/metrics"
	"sparkfish/internal/platform/middleware"
	rateLimitMiddleware "sparkfish/internal/ratelimit/middleware"
	dErrors "sparkfish/pkg/domain-errors"
	"sparkfish/pkg/platform/httputil"
	"sparkfish/pkg/platform/middleware/admin"
	"sparkfish/pkg/platform/middleware/auth"
	"sparkfish/pkg/platform/middleware/metadata"
	"sparkfish/pkg/platform/middleware/requesttime"
)

const (
	requestTimeout = 30 * time.Second
	SigninPath     = "/signin"
)

type Registrar interface {
	Register(r chi.Router)
}

type AdminRegistrar interface {
	RegisterAdmin(r chi.Router)
}

type PublicAndAdmin interface {
	Registrar
	AdminRegistrar
}

// Deps lists everything the router mounts. Nil Files and Ready are skipped.
type Deps struct {
	Logger      *slog.Logger
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.Metrics
	Sessions    auth.SessionValidator
	Admins      admin.Authorizer
	Limiter     *rateLimitMiddleware.Middleware
	Contact     rateLimitMiddleware.Policy
	Ready       func(ctx context.Context) error
	Files       http.Handler

	Catalog      PublicAndAdmin
	Certificates PublicAndAdmin
	Enrollments  AdminRegistrar
	Checkout     Registrar
	ContactForm  Registrar
	Dashboard    Registrar
	Webhook      Registrar
}

// ContactPolicy is the per-caller contact form budget.
func ContactPolicy(cfg config.ContactConfig) rateLimitMiddleware.Policy {
	return rateLimitMiddleware.Policy{Scope: "contact", Limit: cfg.RateLimit, Window: cfg.Window}
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing("sparkfish/http"))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	if d.HTTPMetrics != nil {
		r.Use(middleware.LatencyMiddleware(d.HTTPMetrics))
	}
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "not found"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(d.Ready, d.Logger))
	if d.Registry != nil {
		r.Handle("/metrics", metrics.Handler(d.Registry))
	}
	if d.Files != nil {
		r.Handle("/files/*", d.Files)
	}

	d.Catalog.Register(r)
	d.Certificates.Register(r)
	d.Webhook.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSessionOrRedirect(d.Sessions, d.Logger, SigninPath))
		d.Checkout.Register(r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(d.Limiter.Limit(d.Contact))
			}
			d.ContactForm.Register(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(d.Sessions, d.Logger))
			d.Dashboard.Register(r)

			r.Route("/admin", func(r chi.Router) {
				r.Use(admin.RequireAdmin(d.Admins, d.Logger))
				d.Catalog.RegisterAdmin(r)
				d.Enrollments.RegisterAdmin(r)
				d.Certificates.RegisterAdmin(r)
			})
		})
	})
	return r
}

func readiness(ready func(ctx context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "readiness check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
