package tenant_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinickit/pkg/schema"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb/tenantdbtest"
)

type env struct {
	connector *tenantdbtest.Connector
	registry  *tenantdb.Registry
	binder    *schema.Binder
}

func newEnv(t *testing.T) *env {
	t.Helper()

	connector := tenantdbtest.NewConnector()
	reg, err := tenantdb.New(connector)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close(context.Background()) })

	return &env{connector: connector, registry: reg, binder: schema.NewBinder()}
}

func request(tenantID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	if tenantID != "" {
		req = req.WithContext(tenant.WithIdentity(req.Context(), tenant.Identity{TenantID: tenantID, UserID: "u1"}))
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

type failingBinder struct{ err error }

func (b failingBinder) Bind(conn *tenantdb.Conn) (*schema.Set, error) {
	return nil, &schema.BindingError{TenantID: conn.TenantID(), Err: b.err}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("binds handles for the tenant", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		var scope *tenant.Scope
		var inflight int
		handler := tenant.Middleware(e.registry, e.binder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ok bool
			scope, ok = tenant.FromContext(r.Context())
			require.True(t, ok)
			inflight = scope.Conn.InFlight()

			handles, err := tenant.HandlesFromContext(r.Context())
			require.NoError(t, err)
			assert.Same(t, scope.Handles, handles)
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request("clinic_42"))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, scope)
		assert.Equal(t, "clinic_42", scope.TenantID)
		assert.Equal(t, "clinic_42", scope.Conn.TenantID())
		assert.Equal(t, "clinic_42", scope.Handles.Patients.Database())
		assert.Equal(t, 1, inflight)
		assert.Equal(t, 0, scope.Conn.InFlight(), "lease must be released after the handler")
	})

	t.Run("reuses connection and handles across requests", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		var sets []*schema.Set
		var conns []*tenantdb.Conn
		handler := tenant.Middleware(e.registry, e.binder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, _ := tenant.FromContext(r.Context())
			sets = append(sets, scope.Handles)
			conns = append(conns, scope.Conn)
		}))

		for range 2 {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request("clinic_42"))
			require.Equal(t, http.StatusOK, rec.Code)
		}

		require.Len(t, sets, 2)
		assert.Same(t, sets[0], sets[1])
		assert.Same(t, conns[0], conns[1])
		assert.Equal(t, 1, e.connector.Opens("clinic_42"))
	})

	t.Run("missing identity is rejected before resolving", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		called := false
		handler := tenant.Middleware(e.registry, e.binder)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request(""))

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, map[string]any{
			"success": false,
			"message": "Authentication required to access tenant resources",
		}, decodeBody(t, rec))
		assert.Zero(t, e.registry.Len())
	})

	t.Run("empty tenant in identity is rejected", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		handler := tenant.Middleware(e.registry, e.binder)(http.NotFoundHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(tenant.WithIdentity(req.Context(), tenant.Identity{UserID: "u1"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("connection failure yields generic 500", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.connector.FailWith("clinic_down", errors.New("secret driver detail"))
		handler := tenant.Middleware(e.registry, e.binder)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("handler must not run")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request("clinic_down"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret driver detail")
		assert.Equal(t, map[string]any{
			"success": false,
			"message": "Failed to establish tenant database context",
		}, decodeBody(t, rec))

		e.connector.Recover("clinic_down")
		rec = httptest.NewRecorder()
		tenant.Middleware(e.registry, e.binder)(http.NotFoundHandler()).ServeHTTP(rec, request("clinic_down"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid tenant id yields 500", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		var got error
		handler := tenant.Middleware(e.registry, e.binder,
			tenant.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusTeapot)
			}),
		)(http.NotFoundHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request("../admin"))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		var internal *tenant.InternalError
		require.ErrorAs(t, got, &internal)
		assert.Equal(t, "../admin", internal.TenantID)
		assert.ErrorIs(t, got, tenantdb.ErrInvalidTenantID)
	})

	t.Run("binding failure evicts the connection", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		var got error
		handler := tenant.Middleware(e.registry, failingBinder{err: errors.New("boom")},
			tenant.WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				got = err
				w.WriteHeader(http.StatusInternalServerError)
			}),
		)(http.NotFoundHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request("clinic_1"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.ErrorIs(t, got, schema.ErrBindingFailed)
		assert.Zero(t, e.registry.Len())
	})

	t.Run("skip paths bypass tenant context", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		handler := tenant.Middleware(e.registry, e.binder, tenant.WithSkipPaths("/health"))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, ok := tenant.FromContext(r.Context())
				assert.False(t, ok)
				w.WriteHeader(http.StatusOK)
			}),
		)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("concurrent requests across tenants stay isolated", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		handler := tenant.Middleware(e.registry, e.binder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := tenant.IdentityFromContext(r.Context())
			h := tenant.MustHandles(r.Context())
			if h.Patients.Database() != id.TenantID {
				w.WriteHeader(http.StatusConflict)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))

		tenants := []string{"clinic_a", "clinic_b", "clinic_c"}
		var wg sync.WaitGroup
		for i := range 90 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, request(tenants[i%len(tenants)]))
				assert.Equal(t, http.StatusOK, rec.Code)
			}()
		}
		wg.Wait()

		for _, id := range tenants {
			assert.Equal(t, 1, e.connector.Opens(id), id)
		}
		assert.Equal(t, 3, e.binder.Len())
	})
}
