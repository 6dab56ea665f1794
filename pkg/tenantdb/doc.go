// Package tenantdb keeps one live database connection per tenant.
//
// A Registry maps tenant identifiers to connections opened through a
// Connector. The first request for a tenant opens its connection; every
// concurrent request for the same tenant waits for that single attempt and
// shares the result. Failed or timed-out attempts are never cached, so the
// next request retries.
//
// # Leases
//
// Acquire returns the connection together with a release func. A leased
// connection is not disconnected by eviction until the lease is released or
// the close grace expires:
//
//	conn, release, err := reg.Acquire(ctx, "clinic_42")
//	if err != nil {
//		return err
//	}
//	defer release()
//
//	db, err := conn.Database()
//
// # Eviction
//
// Connections live until Evict, EvictConn or Close remove them. Optionally a
// capacity cap (WithMaxConnections) retires the least recently used
// connection and an idle timeout (WithIdleTimeout) retires connections no
// request has touched for a while. Both are disabled by default.
//
// # Configuration
//
// Config carries the env-tagged settings loaded by pkg/config:
//
//	TENANT_CONNECT_TIMEOUT  connection attempt timeout (default 10s)
//	TENANT_MAX_CONNECTIONS  cached connection cap, 0 = unlimited
//	TENANT_IDLE_TIMEOUT     idle retirement, 0 = disabled
//	TENANT_REAP_INTERVAL    idle check period (default 1m)
//	TENANT_CLOSE_GRACE      wait for in-flight requests on eviction (default 30s)
//
// # Metrics
//
// WithMetrics exports opened, failed, active and evicted connection counts
// plus a connect latency histogram under the "tenantdb" namespace.
package tenantdb
