package tenantdb

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Eviction reasons used in logs and the evictions counter.
const (
	ReasonManual   = "manual"
	ReasonStale    = "stale"
	ReasonIdle     = "idle"
	ReasonCapacity = "capacity"
	ReasonShutdown = "shutdown"
)

// metrics are created per registry so several registries can coexist in one
// process (and in tests); they are only exported when a Registerer is supplied.
type metrics struct {
	opened    prometheus.Counter
	failures  prometheus.Counter
	active    prometheus.Gauge
	evictions *prometheus.CounterVec
	connect   prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		opened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tenantdb",
			Name:      "connections_opened_total",
			Help:      "Tenant database connections opened.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tenantdb",
			Name:      "connection_failures_total",
			Help:      "Failed attempts to open a tenant database connection.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tenantdb",
			Name:      "connections_active",
			Help:      "Tenant database connections currently cached.",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenantdb",
			Name:      "evictions_total",
			Help:      "Tenant connections removed from the registry, by reason.",
		}, []string{"reason"}),
		connect: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tenantdb",
			Name:      "connect_duration_seconds",
			Help:      "Time spent opening tenant database connections.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.opened, m.failures, m.active, m.evictions, m.connect}
}

// register tolerates collectors that are already registered.
func (m *metrics) register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}
