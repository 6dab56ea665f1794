package evictbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/clinickit/pkg/logger"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "clinickit:tenant:evict"

var (
	ErrNilClient    = errors.New("evictbus: redis client is nil")
	ErrInvalidEvent = errors.New("evictbus: invalid event")
)

// Config is the environment-driven bus configuration.
type Config struct {
	Channel string `env:"TENANT_EVICT_CHANNEL" envDefault:"clinickit:tenant:evict"` // Channel is the Redis pub/sub channel shared by all replicas.
}

// Event asks every replica to drop its connection for a tenant.
type Event struct {
	TenantID string    `json:"tenant_id"`
	Origin   string    `json:"origin"`
	SentAt   time.Time `json:"sent_at"`
}

// Evicter drops a tenant's cached connection. *tenantdb.Registry implements it.
type Evicter interface {
	Evict(tenantID string) bool
}

// Bus broadcasts tenant evictions between replicas over Redis pub/sub.
type Bus struct {
	client  redis.UniversalClient
	channel string
	origin  string
	log     *slog.Logger
}

// Option configures the Bus.
type Option func(*Bus)

// WithChannel overrides the pub/sub channel.
func WithChannel(channel string) Option {
	return func(b *Bus) {
		if channel != "" {
			b.channel = channel
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// New creates a Bus. Each Bus gets a unique origin id so it can skip its own events.
func New(client redis.UniversalClient, opts ...Option) (*Bus, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	b := &Bus{
		client:  client,
		channel: DefaultChannel,
		origin:  uuid.NewString(),
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(logger.Component("evictbus"))
	return b, nil
}

// NewFromConfig creates a Bus using cfg.
func NewFromConfig(client redis.UniversalClient, cfg Config, opts ...Option) (*Bus, error) {
	return New(client, append([]Option{WithChannel(cfg.Channel)}, opts...)...)
}

// Origin returns the id stamped on events published by this Bus.
func (b *Bus) Origin() string { return b.origin }

// Publish announces that tenantID's connection must be dropped everywhere.
// It returns the number of subscribers that received the event.
func (b *Bus) Publish(ctx context.Context, tenantID string) (int64, error) {
	if tenantID == "" {
		return 0, ErrInvalidEvent
	}

	payload, err := json.Marshal(Event{TenantID: tenantID, Origin: b.origin, SentAt: time.Now().UTC()})
	if err != nil {
		return 0, fmt.Errorf("evictbus: encode event: %w", err)
	}

	n, err := b.client.Publish(ctx, b.channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("evictbus: publish: %w", err)
	}
	return n, nil
}

// Subscription is an active subscription to the eviction channel.
type Subscription struct {
	bus    *Bus
	pubsub *redis.PubSub
}

// Subscribe subscribes to the channel and returns once the server confirmed it,
// so events published afterwards are guaranteed to be delivered.
func (b *Bus) Subscribe(ctx context.Context) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("evictbus: subscribe: %w", err)
	}
	return &Subscription{bus: b, pubsub: ps}, nil
}

// Serve calls fn for every event from another origin until ctx is done or
// the subscription is closed. It closes the subscription on return.
func (s *Subscription) Serve(ctx context.Context, fn func(Event)) error {
	defer s.pubsub.Close()

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil || ev.TenantID == "" {
				s.bus.log.WarnContext(ctx, "dropping malformed eviction event", logger.Error(errors.Join(ErrInvalidEvent, err)))
				continue
			}
			if ev.Origin == s.bus.origin {
				continue
			}
			fn(ev)
		}
	}
}

// Close ends the subscription.
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

// Listen subscribes and calls fn with the tenant id of every event from
// another replica until ctx is done.
func (b *Bus) Listen(ctx context.Context, fn func(tenantID string)) error {
	sub, err := b.Subscribe(ctx)
	if err != nil {
		return err
	}
	return sub.Serve(ctx, func(ev Event) { fn(ev.TenantID) })
}

// Run subscribes and evicts every announced tenant from evicter until ctx is done.
func (b *Bus) Run(ctx context.Context, evicter Evicter) error {
	sub, err := b.Subscribe(ctx)
	if err != nil {
		return err
	}

	b.log.InfoContext(ctx, "listening for tenant evictions", slog.String("channel", b.channel))
	return sub.Serve(ctx, func(ev Event) {
		evicted := evicter.Evict(ev.TenantID)
		b.log.InfoContext(ctx, "remote tenant eviction",
			logger.TenantID(ev.TenantID),
			slog.String("origin", ev.Origin),
			slog.Bool("evicted", evicted),
		)
	})
}
