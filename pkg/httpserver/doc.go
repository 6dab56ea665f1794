// Package httpserver runs an http.Server tied to a context.
//
// Run listens, serves and shuts down gracefully once the context ends, which
// makes it easy to run several servers under one errgroup:
//
//	g, ctx := errgroup.WithContext(ctx)
//	public := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithName("public"), httpserver.WithLogger(log))
//	admin := httpserver.NewFromConfig(cfg.Admin, httpserver.WithName("admin"), httpserver.WithAddr(":9090"))
//	g.Go(func() error { return public.Run(ctx, router) })
//	g.Go(func() error { return admin.Run(ctx, adminRouter) })
//	err := g.Wait()
//
// Listen failures are wrapped with ErrStart and failed graceful shutdowns
// with ErrShutdown. LivenessHandler and ReadinessHandler serve JSON probes.
package httpserver
