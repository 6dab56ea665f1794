// Package logger builds the process *slog.Logger and keeps attribute names
// consistent across packages.
//
// New applies functional options (format, level, static attributes) and wraps
// the JSON or text handler with a decorator that runs ContextExtractor callbacks
// on every record. Packages that own request-scoped values expose extractors,
// for example tenant.LoggerExtractor and requestid.LoggerExtractor, so a single
//
//	log.InfoContext(ctx, "patient created")
//
// carries tenant_id and request_id without threading them by hand.
//
// # Usage
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//
//	log, err := logger.NewFromConfig(cfg,
//		logger.WithContextExtractors(
//			requestid.LoggerExtractor(),
//			tenant.LoggerExtractor(),
//		),
//	)
//	if err != nil {
//		panic(err)
//	}
//	logger.SetAsDefault(log)
//
// Library packages accept a *slog.Logger through an option and fall back to
// Discard when none is supplied.
//
// Error returns an empty attribute for a nil error, so
//
//	log.Info("done", logger.Error(err))
//
// needs no nil check.
package logger
