package tenantdb

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// disconnectTimeout bounds the driver disconnect once a connection is retired.
const disconnectTimeout = 5 * time.Second

// Conn is the registry-owned handle to one tenant's database.
// Request code borrows it through a lease and must never close it.
type Conn struct {
	tenantID  string
	db        *mongo.Database
	createdAt time.Time

	lastUsed atomic.Int64 // unix nanoseconds
	inflight atomic.Int64
	closed   atomic.Bool
	retiring atomic.Bool
	drained  chan struct{}

	mu        sync.Mutex
	onClose   []func()
	closeOnce sync.Once
	closeErr  error
}

func newConn(tenantID string, db *mongo.Database, now time.Time) *Conn {
	c := &Conn{
		tenantID:  tenantID,
		db:        db,
		createdAt: now,
		drained:   make(chan struct{}, 1),
	}
	c.lastUsed.Store(now.UnixNano())
	return c
}

// TenantID returns the tenant this connection belongs to.
func (c *Conn) TenantID() string { return c.tenantID }

// CreatedAt returns when the connection was opened.
func (c *Conn) CreatedAt() time.Time { return c.createdAt }

// LastUsed returns the last time a lease was taken or released.
func (c *Conn) LastUsed() time.Time { return time.Unix(0, c.lastUsed.Load()) }

// InFlight returns the number of outstanding leases.
func (c *Conn) InFlight() int { return int(c.inflight.Load()) }

// IsOpen reports whether the connection can still serve requests.
func (c *Conn) IsOpen() bool { return !c.closed.Load() }

// Database returns the tenant database, or ErrConnectionClosed once the
// connection has been torn down.
func (c *Conn) Database() (*mongo.Database, error) {
	if c.closed.Load() || c.db == nil {
		return nil, ErrConnectionClosed
	}
	return c.db, nil
}

// OnClose registers fn to run once the connection is closed.
// If the connection is already closed fn runs immediately.
func (c *Conn) OnClose(fn func()) {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		fn()
		return
	}
	c.onClose = append(c.onClose, fn)
	c.mu.Unlock()
}

// acquire takes a lease. It fails when the connection was closed concurrently,
// in which case the caller must resolve again. The closed check and the
// increment happen under c.mu so retire cannot close between them.
func (c *Conn) acquire() (func(), bool) {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return nil, false
	}
	c.inflight.Add(1)
	c.mu.Unlock()
	c.touch()

	var once sync.Once
	return func() { once.Do(c.release) }, true
}

func (c *Conn) release() {
	c.touch()
	if c.inflight.Add(-1) == 0 && c.retiring.Load() {
		select {
		case c.drained <- struct{}{}:
		default:
		}
	}
}

func (c *Conn) touch() {
	c.lastUsed.Store(time.Now().UnixNano())
}

// retire waits until every lease is released or ctx is done, then closes.
func (c *Conn) retire(ctx context.Context) error {
	c.retiring.Store(true)
	for !c.closeIfIdle() {
		select {
		case <-c.drained:
		case <-ctx.Done():
			return c.close(ctx)
		}
	}
	return c.close(ctx)
}

// closeIfIdle marks the connection closed if it holds no leases.
// Once it returns true acquire can no longer succeed.
func (c *Conn) closeIfIdle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight.Load() > 0 {
		return false
	}
	c.closed.Store(true)
	return true
}

// close disconnects the driver client and runs OnClose callbacks exactly once.
func (c *Conn) close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed.Store(true)
		hooks := c.onClose
		c.onClose = nil
		c.mu.Unlock()

		for _, fn := range hooks {
			fn()
		}

		if c.db == nil {
			return
		}
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		c.closeErr = c.db.Client().Disconnect(dctx)
	})
	return c.closeErr
}
