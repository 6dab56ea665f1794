package tenant

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/schema"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
)

// ConnectionSource hands out leased tenant connections. *tenantdb.Registry implements it.
type ConnectionSource interface {
	Acquire(ctx context.Context, tenantID string) (*tenantdb.Conn, func(), error)
	EvictConn(conn *tenantdb.Conn) bool
}

// Binder binds data-access handles to a connection. *schema.Binder implements it.
type Binder interface {
	Bind(conn *tenantdb.Conn) (*schema.Set, error)
}

// Middleware binds the authenticated tenant's database handles to every request.
//
// The tenant comes from the identity stored by WithIdentity; requests without
// one are rejected before the connection source is touched. The connection
// lease is held until the downstream handler returns.
func Middleware(source ConnectionSource, binder Binder, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger.With(logger.Component("tenant"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := r.Context()
			id, ok := IdentityFromContext(ctx)
			if !ok || id.TenantID == "" {
				cfg.errorHandler(w, r, ErrMissingIdentity)
				return
			}

			conn, release, err := source.Acquire(ctx, id.TenantID)
			if err != nil {
				log.ErrorContext(ctx, "tenant connection unavailable",
					logger.TenantID(id.TenantID),
					logger.Error(err),
				)
				cfg.errorHandler(w, r, &InternalError{TenantID: id.TenantID, Message: MessageContextFailed, Err: err})
				return
			}
			defer release()

			handles, err := binder.Bind(conn)
			if err != nil {
				// The next request gets a fresh connection.
				source.EvictConn(conn)
				log.ErrorContext(ctx, "tenant schema binding failed",
					logger.TenantID(id.TenantID),
					logger.Error(err),
				)
				cfg.errorHandler(w, r, &InternalError{TenantID: id.TenantID, Message: MessageContextFailed, Err: err})
				return
			}

			ctx = WithScope(ctx, &Scope{
				TenantID: id.TenantID,
				Conn:     conn,
				Handles:  handles,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
