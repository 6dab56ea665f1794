// Command clinicd serves the multi-tenant clinic API.
//
// Each clinic's data lives in its own MongoDB database. Connections are
// opened on first use, shared by concurrent requests and closed on eviction
// or shutdown. Operational endpoints (metrics, probes, tenant eviction) are
// served on a separate admin listener.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/clinickit/pkg/config"
	"github.com/dmitrymomot/clinickit/pkg/evictbus"
	"github.com/dmitrymomot/clinickit/pkg/httpserver"
	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/mongo"
	"github.com/dmitrymomot/clinickit/pkg/redis"
	"github.com/dmitrymomot/clinickit/pkg/requestid"
	"github.com/dmitrymomot/clinickit/pkg/schema"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	log, err := logger.NewFromConfig(cfg.Log, logger.WithContextExtractors(
		requestid.LoggerExtractor(),
		tenant.LoggerExtractor(),
	))
	if err != nil {
		slog.Error("failed to create logger", logger.Error(err))
		os.Exit(1)
	}
	logger.SetAsDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("clinicd stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	// The control client verifies the cluster at startup and backs the readiness probe.
	control, err := mongo.New(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() { _ = control.Disconnect(context.Background()) }()

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry, err := tenantdb.NewFromConfig(mongo.NewTenantConnector(cfg.Mongo), cfg.Tenants,
		tenantdb.WithInitializer(schema.EnsureIndexes),
		tenantdb.WithLogger(log),
		tenantdb.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	binder := schema.NewBinder()

	checks := []httpserver.Check{{Name: "mongo", Fn: mongo.Healthcheck(control)}}

	g, ctx := errgroup.WithContext(ctx)

	var bus *evictbus.Bus
	if cfg.Redis.Enabled() {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return errors.Join(err, registry.Close(context.Background()))
		}
		defer func() { _ = rdb.Close() }()

		bus, err = evictbus.NewFromConfig(rdb, cfg.Evict, evictbus.WithLogger(log))
		if err != nil {
			return errors.Join(err, registry.Close(context.Background()))
		}
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)})
		g.Go(func() error { return bus.Run(ctx, registry) })
	} else {
		log.Info("REDIS_URL not set, tenant evictions stay local to this replica")
	}

	deps := adminDeps{registry: registry, gatherer: metrics, checks: checks, log: log}
	if bus != nil {
		deps.bus = bus
	}

	public := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithName("public"), httpserver.WithLogger(log))
	admin := httpserver.NewFromConfig(cfg.Admin,
		httpserver.WithName("admin"),
		httpserver.WithAddr(defaultAdminAddr),
		httpserver.WithLogger(log),
	)

	g.Go(func() error { return public.Run(ctx, publicRouter(registry, binder, cfg.TenantHeader, log)) })
	g.Go(func() error { return admin.Run(ctx, adminRouter(deps)) })

	runErr := g.Wait()

	// Servers have drained; in-flight leases are gone unless shutdown timed out.
	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Tenants.CloseGrace+time.Second)
	defer cancel()
	closeErr := registry.Close(closeCtx)

	return errors.Join(runErr, closeErr)
}
