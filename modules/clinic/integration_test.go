package clinic_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinickit/modules/clinic"
	"github.com/dmitrymomot/clinickit/pkg/mongo"
	"github.com/dmitrymomot/clinickit/pkg/schema"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
)

func newMongoAPI(t *testing.T) (http.Handler, string) {
	t.Helper()

	url := os.Getenv("MONGODB_TEST_URL")
	if url == "" {
		t.Skip("MONGODB_TEST_URL not set")
	}

	registry, err := tenantdb.New(
		mongo.NewTenantConnector(mongo.Config{ConnectionURL: url, ConnectTimeout: 5 * time.Second, TenantDBPrefix: "clinickit_api_"}),
		tenantdb.WithInitializer(schema.EnsureIndexes),
	)
	require.NoError(t, err)

	tenantID := fmt.Sprintf("t%d", time.Now().UnixNano())
	t.Cleanup(func() {
		if conn, err := registry.Resolve(context.Background(), tenantID); err == nil {
			if db, err := conn.Database(); err == nil {
				_ = db.Drop(context.Background())
			}
		}
		_ = registry.Close(context.Background())
	})

	api := clinic.Router(clinic.RouterOptions{
		Tenant: func(next http.Handler) http.Handler {
			return tenant.TrustedHeader("")(tenant.Middleware(registry, schema.NewBinder())(next))
		},
	})
	return api, tenantID
}

func TestIntegration_PatientAPI(t *testing.T) {
	api, tenantID := newMongoAPI(t)
	as := map[string]string{tenant.DefaultTenantHeader: tenantID}

	code, resp := do(t, api, http.MethodPost, "/patients", `{"id":"`+clientChosenID+`","firstName":"Ada","lastName":"Lovelace","phone":"+44 20 7946 0958"}`, as)
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var created schema.Patient
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	require.False(t, created.ID.IsZero())
	assert.NotEqual(t, clientChosenID, created.ID.Hex())
	id := created.ID.Hex()

	code, resp = do(t, api, http.MethodGet, "/patients/"+id, "", as)
	require.Equal(t, http.StatusOK, code)

	code, resp = do(t, api, http.MethodPut, "/patients/"+id, `{"firstName":"Ada","lastName":"King"}`, as)
	require.Equal(t, http.StatusOK, code)
	var updated schema.Patient
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	assert.Equal(t, "King", updated.LastName)
	assert.Equal(t, created.Phone, updated.Phone)

	code, _ = do(t, api, http.MethodDelete, "/patients/"+id, "", as)
	require.Equal(t, http.StatusOK, code)

	code, resp = do(t, api, http.MethodGet, "/patients", "", as)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(resp.Data))

	code, resp = do(t, api, http.MethodGet, "/patients?include_archived=true", "", as)
	require.Equal(t, http.StatusOK, code)
	var all []schema.Patient
	require.NoError(t, json.Unmarshal(resp.Data, &all))
	require.Len(t, all, 1)
	assert.False(t, *all[0].IsActive)

	code, resp = do(t, api, http.MethodGet, "/patients/"+schemaMissingID, "", as)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Patient not found", resp.Message)
}

func TestIntegration_StaffAndSettingsAPI(t *testing.T) {
	api, tenantID := newMongoAPI(t)
	as := map[string]string{tenant.DefaultTenantHeader: tenantID}

	body := `{"firstName":"Grace","lastName":"Hopper","email":"grace@example.com"}`
	code, _ := do(t, api, http.MethodPost, "/staff", body, as)
	require.Equal(t, http.StatusCreated, code)
	code, resp := do(t, api, http.MethodPost, "/staff", body, as)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)

	code, resp = do(t, api, http.MethodGet, "/settings", "", as)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"timezone":"UTC"`)

	code, resp = do(t, api, http.MethodPut, "/settings", `{"clinicName":"Downtown","timezone":"Europe/Berlin"}`, as)
	require.Equal(t, http.StatusOK, code)
	code, resp = do(t, api, http.MethodGet, "/settings", "", as)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"clinicName":"Downtown"`)
}

const (
	schemaMissingID = "0000000000000000000000ff"
	clientChosenID  = "65f000000000000000000001"
)
