package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/clinickit/modules/clinic"
	"github.com/dmitrymomot/clinickit/pkg/httpserver"
	"github.com/dmitrymomot/clinickit/pkg/requestid"
	"github.com/dmitrymomot/clinickit/pkg/schema"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
)

// publicRouter serves the clinic API under /api.
func publicRouter(registry *tenantdb.Registry, binder *schema.Binder, tenantHeader string, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer, accessLog(log))

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Mount("/api", clinic.Router(clinic.RouterOptions{
		Tenant: func(next http.Handler) http.Handler {
			scoped := tenant.Middleware(registry, binder, tenant.WithLogger(log))(next)
			return tenant.TrustedHeader(tenantHeader)(scoped)
		},
		Logger: log,
	}))
	return r
}

// accessLog writes one record per request once the response is done.
func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
