package tenant

import (
	"net/http"
	"strings"
)

// DefaultTenantHeader is the header an authenticating gateway sets with the caller's tenant.
const DefaultTenantHeader = "X-Tenant-ID"

// DefaultUserHeader is the header an authenticating gateway sets with the caller's user id.
const DefaultUserHeader = "X-User-ID"

// Resolver extracts the caller's identity from a request that has already
// been authenticated upstream.
type Resolver interface {
	// Resolve returns ok=false when the request carries no identity.
	Resolve(r *http.Request) (Identity, bool)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as Resolvers.
type ResolverFunc func(r *http.Request) (Identity, bool)

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) (Identity, bool) {
	return f(r)
}

// HeaderResolver reads the identity from headers set by a trusted proxy.
type HeaderResolver struct {
	TenantHeader string
	UserHeader   string
}

// NewHeaderResolver creates a header resolver. Empty names fall back to the defaults.
func NewHeaderResolver(tenantHeader string) *HeaderResolver {
	if tenantHeader == "" {
		tenantHeader = DefaultTenantHeader
	}
	return &HeaderResolver{TenantHeader: tenantHeader, UserHeader: DefaultUserHeader}
}

// Resolve reads the tenant and user headers.
func (h *HeaderResolver) Resolve(r *http.Request) (Identity, bool) {
	tenantID := strings.TrimSpace(r.Header.Get(h.TenantHeader))
	if tenantID == "" {
		return Identity{}, false
	}
	return Identity{
		TenantID: tenantID,
		UserID:   strings.TrimSpace(r.Header.Get(h.UserHeader)),
	}, true
}

// Authenticated stores the identity found by resolver in the request context.
// Requests without one pass through unchanged; the tenant middleware rejects them.
func Authenticated(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := resolver.Resolve(r); ok {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedHeader takes the identity from a header set by an authenticating
// gateway. Only use it when clients cannot reach the service directly.
func TrustedHeader(name string) func(http.Handler) http.Handler {
	return Authenticated(NewHeaderResolver(name))
}
