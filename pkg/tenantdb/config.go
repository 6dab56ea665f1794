package tenantdb

import "time"

// Config is the environment-driven registry configuration.
type Config struct {
	ConnectTimeout time.Duration `env:"TENANT_CONNECT_TIMEOUT" envDefault:"10s"` // ConnectTimeout bounds a single connection attempt.
	MaxConnections int           `env:"TENANT_MAX_CONNECTIONS" envDefault:"0"`   // MaxConnections caps cached connections; 0 disables the cap.
	IdleTimeout    time.Duration `env:"TENANT_IDLE_TIMEOUT" envDefault:"0s"`     // IdleTimeout retires unused connections; 0 disables it.
	ReapInterval   time.Duration `env:"TENANT_REAP_INTERVAL" envDefault:"1m"`    // ReapInterval is how often idle connections are checked.
	CloseGrace     time.Duration `env:"TENANT_CLOSE_GRACE" envDefault:"30s"`     // CloseGrace bounds the wait for in-flight requests on eviction.
}

// NewFromConfig creates a Registry from cfg. Options passed explicitly are applied last.
func NewFromConfig(connector Connector, cfg Config, opts ...Option) (*Registry, error) {
	configOpts := []Option{
		WithConnectTimeout(cfg.ConnectTimeout),
		WithMaxConnections(cfg.MaxConnections),
		WithIdleTimeout(cfg.IdleTimeout),
		WithReapInterval(cfg.ReapInterval),
		WithCloseGrace(cfg.CloseGrace),
	}
	return New(connector, append(configOpts, opts...)...)
}
