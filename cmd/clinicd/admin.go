package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/clinickit/pkg/httpserver"
	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
)

// tenantRegistry is the part of *tenantdb.Registry the admin API uses.
type tenantRegistry interface {
	Stats() []tenantdb.ConnStat
	Evict(tenantID string) bool
}

// publisher announces evictions to other replicas. *evictbus.Bus implements it.
type publisher interface {
	Publish(ctx context.Context, tenantID string) (int64, error)
}

type adminDeps struct {
	registry tenantRegistry
	bus      publisher // nil when Redis is not configured
	gatherer prometheus.Gatherer
	checks   []httpserver.Check
	log      *slog.Logger
}

// adminRouter serves operational endpoints. It must not be exposed publicly.
func adminRouter(d adminDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(d.log, d.checks...))
	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	r.Get("/tenants", func(w http.ResponseWriter, _ *http.Request) {
		stats := d.registry.Stats()
		writeAdminJSON(w, http.StatusOK, map[string]any{"count": len(stats), "tenants": stats})
	})

	r.Post("/tenants/{id}/evict", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := tenantdb.ValidateTenantID(id); err != nil {
			writeAdminJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		evicted := d.registry.Evict(id)
		resp := map[string]any{"tenant_id": id, "evicted": evicted}
		if d.bus != nil {
			n, err := d.bus.Publish(r.Context(), id)
			if err != nil {
				// The local eviction stands; other replicas keep their connection until it idles out.
				d.log.WarnContext(r.Context(), "eviction broadcast failed", logger.TenantID(id), logger.Error(err))
				resp["broadcast_error"] = "publish failed"
			} else {
				resp["replicas_notified"] = n
			}
		}

		d.log.InfoContext(r.Context(), "tenant evicted by operator", logger.TenantID(id), slog.Bool("cached", evicted))
		writeAdminJSON(w, http.StatusOK, resp)
	})

	return r
}

func writeAdminJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
