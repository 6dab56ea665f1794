// Package requestid correlates log records of a single HTTP request.
//
// Middleware accepts a client supplied X-Request-ID when it is well formed
// and generates a UUIDv7 otherwise. The id is echoed in the response header
// and stored in the request context, where LoggerExtractor picks it up:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	handler := requestid.Middleware(router)
package requestid
