package tenantdb

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	// DefaultConnectTimeout bounds a single connection attempt.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultCloseGrace bounds how long a retired connection waits for leases.
	DefaultCloseGrace = 30 * time.Second
	// DefaultReapInterval is how often idle connections are looked for.
	DefaultReapInterval = time.Minute
)

// Initializer prepares a freshly opened tenant database before it is cached,
// e.g. by ensuring indexes. An error closes the connection and fails the resolve.
type Initializer func(ctx context.Context, db *mongo.Database) error

type options struct {
	connectTimeout time.Duration
	maxConns       int
	idleTimeout    time.Duration
	reapInterval   time.Duration
	closeGrace     time.Duration
	initializer    Initializer
	logger         *slog.Logger
	registerer     prometheus.Registerer
}

// Option configures the Registry.
type Option func(*options)

// WithConnectTimeout bounds each connection attempt, including the initializer.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithMaxConnections caps the number of cached tenant connections.
// The least recently used connection is retired when the cap is exceeded.
// Zero disables the cap.
func WithMaxConnections(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxConns = n
		}
	}
}

// WithIdleTimeout retires connections that had no lease for d. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.idleTimeout = d
		}
	}
}

// WithReapInterval sets how often idle connections are checked.
func WithReapInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.reapInterval = d
		}
	}
}

// WithCloseGrace bounds how long an evicted connection waits for in-flight
// requests before it is disconnected anyway.
func WithCloseGrace(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.closeGrace = d
		}
	}
}

// WithInitializer runs fn on every new connection before it is cached.
func WithInitializer(fn Initializer) Option {
	return func(o *options) {
		o.initializer = fn
	}
}

// WithLogger sets the logger. Nil keeps the discarding default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics registers the registry's Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}
