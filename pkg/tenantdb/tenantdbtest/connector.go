// Package tenantdbtest provides a scriptable tenantdb.Connector for tests.
//
// The connector builds real driver clients without contacting a server (the
// driver connects lazily), so registry, binder and middleware behavior can be
// exercised without MongoDB. Operations that reach the server will fail.
package tenantdbtest

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultURI points at a local server that tests never need to reach.
const DefaultURI = "mongodb://127.0.0.1:27017"

// Connector counts connection attempts per tenant and can be told to fail or block.
type Connector struct {
	URI string

	mu       sync.Mutex
	attempts map[string]int
	opens    map[string]int
	failures map[string]error
	gate     chan struct{}
	started  chan string
	gates    map[string]tenantGate
}

type tenantGate struct {
	gate    chan struct{}
	started chan string
}

// NewConnector returns a Connector using DefaultURI.
func NewConnector() *Connector {
	return &Connector{
		URI:      DefaultURI,
		attempts: make(map[string]int),
		opens:    make(map[string]int),
		failures: make(map[string]error),
		gates:    make(map[string]tenantGate),
	}
}

// Connect implements tenantdb.Connector.
func (c *Connector) Connect(ctx context.Context, tenantID string) (*mongo.Database, error) {
	c.mu.Lock()
	c.attempts[tenantID]++
	gate, started := c.gate, c.started
	if g, ok := c.gates[tenantID]; ok {
		gate, started = g.gate, g.started
	}
	failure := c.failures[tenantID]
	c.mu.Unlock()

	if started != nil {
		select {
		case started <- tenantID:
		default:
		}
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if failure != nil {
		return nil, failure
	}

	client, err := mongo.Connect(options.Client().ApplyURI(c.URI))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.opens[tenantID]++
	c.mu.Unlock()

	return client.Database(tenantID), nil
}

// FailWith makes every following attempt for tenantID return err.
func (c *Connector) FailWith(tenantID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[tenantID] = err
}

// Recover clears a failure set with FailWith.
func (c *Connector) Recover(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failures, tenantID)
}

// Block makes attempts wait until the returned func is called or their context ends.
// The returned channel receives the tenant id of each attempt as it starts waiting.
func (c *Connector) Block() (<-chan string, func()) {
	gate := make(chan struct{})
	started := make(chan string, 64)

	c.mu.Lock()
	c.gate = gate
	c.started = started
	c.mu.Unlock()

	var once sync.Once
	return started, func() {
		once.Do(func() {
			c.mu.Lock()
			c.gate = nil
			c.mu.Unlock()
			close(gate)
		})
	}
}

// BlockTenant is like Block but only holds attempts for tenantID;
// other tenants connect normally.
func (c *Connector) BlockTenant(tenantID string) (<-chan string, func()) {
	gate := make(chan struct{})
	started := make(chan string, 64)

	c.mu.Lock()
	c.gates[tenantID] = tenantGate{gate: gate, started: started}
	c.mu.Unlock()

	var once sync.Once
	return started, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.gates, tenantID)
			c.mu.Unlock()
			close(gate)
		})
	}
}

// Attempts returns how many times Connect was called for tenantID.
func (c *Connector) Attempts(tenantID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts[tenantID]
}

// Opens returns how many connections were actually created for tenantID.
func (c *Connector) Opens(tenantID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[tenantID]
}
