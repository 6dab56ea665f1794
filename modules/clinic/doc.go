// Package clinic serves the clinic REST API on top of the per-tenant data
// handles bound by the tenant middleware.
//
//	api := clinic.Router(clinic.RouterOptions{
//		Tenant: func(next http.Handler) http.Handler {
//			return tenant.TrustedHeader("")(tenant.Middleware(registry, binder)(next))
//		},
//		Logger: log,
//	})
//	r.Mount("/api", api)
//
// Responses use a single envelope: {"success":true,"data":...} on success and
// {"success":false,"message":...} on failure, with per-field "errors" for
// validation failures (422). DELETE archives instead of removing: patients and
// staff are deactivated and appointments cancelled.
package clinic
