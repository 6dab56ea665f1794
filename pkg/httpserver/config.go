package httpserver

import "time"

// Config is the environment-driven server configuration. Variable names are
// unprefixed so the same struct can serve several listeners, e.g.
//
//	Public httpserver.Config `envPrefix:"HTTP_"`
//	Admin  httpserver.Config `envPrefix:"ADMIN_HTTP_"`
type Config struct {
	Addr            string        `env:"ADDR"`                            // Addr is the listen address; empty keeps the option or default.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`   // ReadTimeout bounds reading the entire request.
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`  // WriteTimeout bounds writing the response.
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`  // IdleTimeout bounds keep-alive idle time.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"` // ShutdownTimeout bounds graceful shutdown.
}

// NewFromConfig creates a Server from cfg. Zero values are skipped and
// explicit options are applied first, so cfg wins over them.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	if cfg.Addr != "" {
		opts = append(opts, WithAddr(cfg.Addr))
	}
	if cfg.ReadTimeout > 0 {
		opts = append(opts, WithReadTimeout(cfg.ReadTimeout))
	}
	if cfg.WriteTimeout > 0 {
		opts = append(opts, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.IdleTimeout > 0 {
		opts = append(opts, WithIdleTimeout(cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		opts = append(opts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}
	return New(opts...)
}
