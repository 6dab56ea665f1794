// Package redis provides helpers for connecting to a Redis server.
//
// Connect parses a redis:// URL, pings the server with retries and returns
// a ready go-redis client. Healthcheck adapts a client into a readiness probe.
//
//	cfg := redis.Config{
//		ConnectionURL:  "redis://localhost:6379/0",
//		RetryAttempts:  3,
//		RetryInterval:  2 * time.Second,
//		ConnectTimeout: 30 * time.Second,
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Config fields are populated from REDIS_* environment variables by pkg/config.
// An empty REDIS_URL leaves Redis disabled; check Config.Enabled before connecting.
package redis
