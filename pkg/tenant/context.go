package tenant

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/clinickit/pkg/schema"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
)

type (
	identityKey struct{}
	scopeKey    struct{}
)

// Identity is the verified caller as established by the authentication layer.
type Identity struct {
	TenantID string
	UserID   string
}

// WithIdentity stores the verified identity in ctx. Only authentication code
// should call it; the tenant is never taken from request input.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Scope is the tenant context of one request.
type Scope struct {
	TenantID string
	Conn     *tenantdb.Conn
	Handles  *schema.Set
}

// WithScope adds scope to the context.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// FromContext retrieves the request's tenant scope.
func FromContext(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(*Scope)
	return scope, ok && scope != nil
}

// HandlesFromContext returns the data-access handles bound for the request's tenant.
func HandlesFromContext(ctx context.Context) (*schema.Set, error) {
	scope, ok := FromContext(ctx)
	if !ok || scope.Handles == nil {
		return nil, ErrNoScope
	}
	return scope.Handles, nil
}

// MustHandles is like HandlesFromContext but panics without a scope.
// Use it only in handlers mounted behind Middleware.
func MustHandles(ctx context.Context) *schema.Set {
	handles, err := HandlesFromContext(ctx)
	if err != nil {
		panic("tenant: no handles in context")
	}
	return handles
}

// LoggerExtractor returns a ContextExtractor for the logger that adds the tenant id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if scope, ok := FromContext(ctx); ok {
			return slog.String("tenant_id", scope.TenantID), true
		}
		if id, ok := IdentityFromContext(ctx); ok && id.TenantID != "" {
			return slog.String("tenant_id", id.TenantID), true
		}
		return slog.Attr{}, false
	}
}
