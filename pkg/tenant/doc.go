// Package tenant binds every authenticated request to its tenant's database.
//
// The authentication layer stores a verified Identity in the request context
// (WithIdentity, or Authenticated/TrustedHeader behind a gateway). Middleware
// then leases the tenant's connection from a ConnectionSource, binds the
// schema handles and stores them as a Scope for downstream handlers:
//
//	r := chi.NewRouter()
//	r.Use(tenant.TrustedHeader("X-Tenant-ID"))
//	r.Use(tenant.Middleware(registry, schema.NewBinder(),
//		tenant.WithLogger(log),
//	))
//	r.Get("/patients", func(w http.ResponseWriter, r *http.Request) {
//		h := tenant.MustHandles(r.Context())
//		patients, err := h.Patients.List(r.Context(), schema.ListOptions{})
//		// ...
//	})
//
// # Errors
//
// A request without identity gets 401 and never reaches the connection
// source. Failing to open the connection or bind the handles yields 500
// with a generic message; the cause is only logged. A binding failure also
// evicts the connection so the next request starts fresh.
//
// Use WithErrorHandler to render errors differently. The handler receives
// ErrMissingIdentity or an *InternalError wrapping the cause.
//
// # Logging
//
// LoggerExtractor adds tenant_id to log records emitted with the request context.
package tenant
