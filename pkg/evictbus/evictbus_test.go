package evictbus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinickit/pkg/evictbus"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb/tenantdbtest"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) Evict(tenantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, tenantID)
	return true
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := evictbus.New(nil)
	assert.ErrorIs(t, err, evictbus.ErrNilClient)

	_, client := newClient(t)
	a, err := evictbus.New(client)
	require.NoError(t, err)
	b, err := evictbus.NewFromConfig(client, evictbus.Config{Channel: "custom"})
	require.NoError(t, err)
	assert.NotEqual(t, a.Origin(), b.Origin())
}

func TestBus_PublishAndServe(t *testing.T) {
	t.Parallel()

	_, client := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender, err := evictbus.New(client, evictbus.WithChannel("test:evict"))
	require.NoError(t, err)
	receiver, err := evictbus.New(client, evictbus.WithChannel("test:evict"))
	require.NoError(t, err)

	sub, err := receiver.Subscribe(ctx)
	require.NoError(t, err)

	events := make(chan evictbus.Event, 4)
	done := make(chan error, 1)
	go func() { done <- sub.Serve(ctx, func(ev evictbus.Event) { events <- ev }) }()

	n, err := sender.Publish(ctx, "clinic_42")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	select {
	case ev := <-events:
		assert.Equal(t, "clinic_42", ev.TenantID)
		assert.Equal(t, sender.Origin(), ev.Origin)
		assert.False(t, ev.SentAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestBus_IgnoresOwnAndMalformedEvents(t *testing.T) {
	t.Parallel()

	_, client := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := evictbus.New(client)
	require.NoError(t, err)
	other, err := evictbus.New(client)
	require.NoError(t, err)

	sub, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	events := make(chan evictbus.Event, 4)
	go func() { _ = sub.Serve(ctx, func(ev evictbus.Event) { events <- ev }) }()

	_, err = bus.Publish(ctx, "own")
	require.NoError(t, err)
	require.NoError(t, client.Publish(ctx, evictbus.DefaultChannel, "not json").Err())
	require.NoError(t, client.Publish(ctx, evictbus.DefaultChannel, `{"tenant_id":""}`).Err())
	_, err = other.Publish(ctx, "remote")
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "remote", ev.TenantID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
	assert.Empty(t, events)
}

func TestBus_PublishValidates(t *testing.T) {
	t.Parallel()

	_, client := newClient(t)
	bus, err := evictbus.New(client)
	require.NoError(t, err)

	_, err = bus.Publish(context.Background(), "")
	assert.ErrorIs(t, err, evictbus.ErrInvalidEvent)
}

func TestBus_Run(t *testing.T) {
	t.Parallel()

	_, client := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local, err := evictbus.New(client)
	require.NoError(t, err)
	remote, err := evictbus.New(client)
	require.NoError(t, err)

	rec := &recorder{}
	go func() { _ = local.Run(ctx, rec) }()

	// Run subscribes asynchronously; publish until it is listening.
	assert.Eventually(t, func() bool {
		n, err := remote.Publish(ctx, "clinic_7")
		return err == nil && n > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return len(rec.get()) > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "clinic_7", rec.get()[0])
}

func TestBus_EvictsFromRegistry(t *testing.T) {
	t.Parallel()

	_, client := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg, err := tenantdb.New(tenantdbtest.NewConnector())
	require.NoError(t, err)
	defer reg.Close(context.Background())

	conn, err := reg.Resolve(ctx, "clinic_42")
	require.NoError(t, err)

	replica, err := evictbus.New(client)
	require.NoError(t, err)
	admin, err := evictbus.New(client)
	require.NoError(t, err)

	sub, err := replica.Subscribe(ctx)
	require.NoError(t, err)
	go func() {
		_ = sub.Serve(ctx, func(ev evictbus.Event) { reg.Evict(ev.TenantID) })
	}()

	_, err = admin.Publish(ctx, "clinic_42")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return reg.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !conn.IsOpen() }, 2*time.Second, 10*time.Millisecond)
}

func TestBus_Listen(t *testing.T) {
	t.Parallel()

	srv, client := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	listener, err := evictbus.New(client)
	require.NoError(t, err)
	publisher, err := evictbus.New(client)
	require.NoError(t, err)

	got := make(chan string, 8)
	done := make(chan error, 1)
	go func() { done <- listener.Listen(ctx, func(id string) { got <- id }) }()

	assert.Eventually(t, func() bool {
		return len(srv.PubSubChannels("")) > 0
	}, 2*time.Second, 10*time.Millisecond)

	_, err = publisher.Publish(ctx, "clinic_9")
	require.NoError(t, err)
	select {
	case id := <-got:
		assert.Equal(t, "clinic_9", id)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return")
	}
}

func TestBus_SubscribeFailsWhenServerDown(t *testing.T) {
	t.Parallel()

	srv, client := newClient(t)
	srv.Close()

	bus, err := evictbus.New(client)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = bus.Subscribe(ctx)
	assert.Error(t, err)
}
