package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/clinickit/pkg/cache"
	"github.com/dmitrymomot/clinickit/pkg/logger"
)

// Connector opens the backing database for a tenant.
// Implementations must honor ctx cancellation.
type Connector interface {
	Connect(ctx context.Context, tenantID string) (*mongo.Database, error)
}

// ConnectorFunc adapts an ordinary function to Connector.
type ConnectorFunc func(ctx context.Context, tenantID string) (*mongo.Database, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, tenantID string) (*mongo.Database, error) {
	return f(ctx, tenantID)
}

// ConnStat is a point-in-time view of one cached connection.
type ConnStat struct {
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	InFlight  int       `json:"in_flight"`
}

// Registry maps tenant identifiers to live connections. It opens at most one
// connection per tenant, shares it across concurrent requests and retires it on
// eviction or Close. The zero value is not usable; create one with New.
type Registry struct {
	connector Connector
	opts      options
	log       *slog.Logger
	metrics   *metrics

	entries *cache.LRU[string, *Conn]
	flights singleflight.Group

	mu      sync.RWMutex // guards closed; held for reading while storing a new entry
	closed  bool
	pending sync.WaitGroup // retirements in progress
	stop    chan struct{}
	done    chan struct{}
}

// New creates a Registry that opens connections through connector.
func New(connector Connector, opts ...Option) (*Registry, error) {
	if connector == nil {
		return nil, ErrNilConnector
	}

	o := options{
		connectTimeout: DefaultConnectTimeout,
		reapInterval:   DefaultReapInterval,
		closeGrace:     DefaultCloseGrace,
		logger:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := newMetrics()
	if err := m.register(o.registerer); err != nil {
		return nil, errors.Join(errors.New("tenantdb: register metrics"), err)
	}

	r := &Registry{
		connector: connector,
		opts:      o,
		log:       o.logger.With(logger.Component("tenantdb")),
		metrics:   m,
		entries:   cache.NewLRU[string, *Conn](o.maxConns),
	}
	r.entries.OnEvict(func(_ string, c *Conn) {
		r.metrics.active.Dec()
		r.retire(c, ReasonCapacity)
	})

	if o.idleTimeout > 0 {
		r.stop = make(chan struct{})
		r.done = make(chan struct{})
		go r.reap()
	}

	return r, nil
}

// Resolve returns the tenant's connection, opening it on first use.
// Concurrent calls for the same tenant share a single connection attempt.
// The handle is borrowed: use Acquire when the caller must keep it usable
// for the duration of a unit of work, e.g. an HTTP request.
func (r *Registry) Resolve(ctx context.Context, tenantID string) (*Conn, error) {
	conn, release, err := r.Acquire(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	release()
	return conn, nil
}

// Acquire resolves the tenant's connection and takes a lease on it.
// While the lease is held an eviction waits (up to the close grace) before
// disconnecting. The returned release func is idempotent.
func (r *Registry) Acquire(ctx context.Context, tenantID string) (*Conn, func(), error) {
	if err := ValidateTenantID(tenantID); err != nil {
		return nil, nil, err
	}

	for {
		conn, err := r.lookup(ctx, tenantID)
		if err != nil {
			return nil, nil, err
		}
		if release, ok := conn.acquire(); ok {
			return conn, release, nil
		}
		// Closed between lookup and lease; drop it if still cached and retry.
		if _, removed := r.entries.RemoveIf(tenantID, sameConn(conn)); removed {
			r.metrics.active.Dec()
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, &ConnectionError{TenantID: tenantID, Err: err}
		}
	}
}

func (r *Registry) lookup(ctx context.Context, tenantID string) (*Conn, error) {
	if r.isClosed() {
		return nil, ErrRegistryClosed
	}

	if conn, ok := r.entries.Get(tenantID); ok {
		if conn.IsOpen() {
			return conn, nil
		}
		if _, removed := r.entries.RemoveIf(tenantID, sameConn(conn)); removed {
			r.metrics.active.Dec()
		}
	}

	ch := r.flights.DoChan(tenantID, func() (any, error) {
		return r.open(ctx, tenantID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Conn), nil
	case <-ctx.Done():
		// The flight keeps running for the other waiters and still caches its result.
		return nil, &ConnectionError{TenantID: tenantID, Err: ctx.Err()}
	}
}

type dialResult struct {
	db  *mongo.Database
	err error
}

// open runs inside the tenant's flight; only one open per tenant is in progress.
func (r *Registry) open(ctx context.Context, tenantID string) (*Conn, error) {
	// A previous flight may have stored the connection after our cache miss.
	if conn, ok := r.entries.Peek(tenantID); ok && conn.IsOpen() {
		return conn, nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.connectTimeout)
	defer cancel()

	start := time.Now()
	results := make(chan dialResult, 1)
	go func() {
		db, err := r.connector.Connect(ctx, tenantID)
		results <- dialResult{db: db, err: err}
	}()

	var db *mongo.Database
	select {
	case res := <-results:
		if res.err == nil && res.db == nil {
			res.err = errors.New("connector returned no database")
		}
		if res.err != nil {
			return nil, r.fail(ctx, tenantID, res.err)
		}
		db = res.db
	case <-ctx.Done():
		// Disconnect whatever the connector eventually returns.
		go func() {
			if res := <-results; res.db != nil {
				_ = res.db.Client().Disconnect(context.Background())
			}
		}()
		return nil, r.fail(ctx, tenantID, ctx.Err())
	}

	conn := newConn(tenantID, db, time.Now())

	if r.opts.initializer != nil {
		if err := r.opts.initializer(ctx, db); err != nil {
			_ = conn.close(ctx)
			return nil, r.fail(ctx, tenantID, errors.Join(errors.New("initialize tenant database"), err))
		}
	}

	if err := r.store(conn); err != nil {
		_ = conn.close(ctx)
		return nil, err
	}

	elapsed := time.Since(start)
	r.metrics.opened.Inc()
	r.metrics.connect.Observe(elapsed.Seconds())
	r.log.InfoContext(ctx, "tenant connection opened",
		logger.TenantID(tenantID),
		logger.Duration(elapsed),
	)
	return conn, nil
}

func (r *Registry) fail(ctx context.Context, tenantID string, err error) error {
	r.metrics.failures.Inc()
	r.log.ErrorContext(ctx, "tenant connection failed",
		logger.TenantID(tenantID),
		logger.Error(err),
	)
	return &ConnectionError{TenantID: tenantID, Err: err}
}

// store caches conn unless the registry was closed meanwhile.
func (r *Registry) store(conn *Conn) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRegistryClosed
	}
	if prev, replaced := r.entries.Put(conn.tenantID, conn); replaced && prev != conn {
		// Only a closed entry can be replaced; account for it as stale.
		r.metrics.active.Dec()
		r.retire(prev, ReasonStale)
	}
	r.metrics.active.Inc()
	return nil
}

// Evict removes the tenant's connection and retires it once in-flight requests finish.
// It reports whether a connection was cached.
func (r *Registry) Evict(tenantID string) bool {
	conn, ok := r.entries.Remove(tenantID)
	if !ok {
		return false
	}
	r.metrics.active.Dec()
	r.retire(conn, ReasonManual)
	return true
}

// EvictConn removes conn only if it is still the cached connection for its tenant,
// so a fresh connection that already replaced it is left alone.
func (r *Registry) EvictConn(conn *Conn) bool {
	if conn == nil {
		return false
	}
	if _, ok := r.entries.RemoveIf(conn.tenantID, sameConn(conn)); !ok {
		return false
	}
	r.metrics.active.Dec()
	r.retire(conn, ReasonStale)
	return true
}

// retire closes conn in the background after its leases drain or the close grace expires.
// It never blocks, so it is safe to call with the entries lock held.
func (r *Registry) retire(conn *Conn, reason string) {
	r.metrics.evictions.WithLabelValues(reason).Inc()
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.closeGrace)
		defer cancel()
		if err := conn.retire(ctx); err != nil {
			r.log.Warn("tenant connection close failed",
				logger.TenantID(conn.tenantID),
				logger.Reason(reason),
				logger.Error(err),
			)
			return
		}
		r.log.Info("tenant connection closed",
			logger.TenantID(conn.tenantID),
			logger.Reason(reason),
		)
	}()
}

// reap periodically retires connections idle for longer than the idle timeout.
func (r *Registry) reap() {
	ticker := time.NewTicker(r.opts.reapInterval)
	defer ticker.Stop()
	defer close(r.done)

	for {
		select {
		case <-ticker.C:
			r.reapIdle(time.Now())
		case <-r.stop:
			return
		}
	}
}

func (r *Registry) reapIdle(now time.Time) {
	idle := func(c *Conn) bool {
		return c.InFlight() == 0 && now.Sub(c.LastUsed()) >= r.opts.idleTimeout
	}

	var candidates []string
	r.entries.Range(func(id string, c *Conn) bool {
		if idle(c) {
			candidates = append(candidates, id)
		}
		return true
	})

	for _, id := range candidates {
		if conn, ok := r.entries.RemoveIf(id, idle); ok {
			r.metrics.active.Dec()
			r.retire(conn, ReasonIdle)
		}
	}
}

// Len returns the number of cached connections.
func (r *Registry) Len() int {
	return r.entries.Len()
}

// Stats returns a snapshot of cached connections, most recently used first.
func (r *Registry) Stats() []ConnStat {
	out := make([]ConnStat, 0, r.entries.Len())
	r.entries.Range(func(id string, c *Conn) bool {
		out = append(out, ConnStat{
			TenantID:  id,
			CreatedAt: c.CreatedAt(),
			LastUsed:  c.LastUsed(),
			InFlight:  c.InFlight(),
		})
		return true
	})
	return out
}

// Close stops accepting resolves and closes every connection. It waits for
// in-flight leases until ctx is done, then disconnects regardless.
// Calling Close more than once is a no-op.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if r.stop != nil {
		close(r.stop)
		<-r.done
	}

	conns := r.entries.Drain()
	var errs []error
	for _, conn := range conns {
		r.metrics.active.Dec()
		r.metrics.evictions.WithLabelValues(ReasonShutdown).Inc()
		if err := conn.retire(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tenantdb: close tenant %q: %w", conn.tenantID, err))
		}
	}
	r.pending.Wait()

	r.log.InfoContext(ctx, "tenant registry closed", logger.Count(len(conns)))
	return errors.Join(errs...)
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func sameConn(conn *Conn) func(*Conn) bool {
	return func(c *Conn) bool { return c == conn }
}
