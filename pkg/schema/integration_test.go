package schema_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/clinickit/pkg/mongo"
	"github.com/dmitrymomot/clinickit/pkg/schema"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
)

// openTenant connects to a real server; the test is skipped without MONGODB_TEST_URL.
func openTenant(t *testing.T) *schema.Set {
	t.Helper()
	set, _ := openTenantConn(t)
	return set
}

func openTenantConn(t *testing.T) (*schema.Set, *tenantdb.Conn) {
	t.Helper()

	url := os.Getenv("MONGODB_TEST_URL")
	if url == "" {
		t.Skip("MONGODB_TEST_URL not set")
	}

	connector := mongo.NewTenantConnector(mongo.Config{
		ConnectionURL:  url,
		ConnectTimeout: 5 * time.Second,
		TenantDBPrefix: "clinickit_test_",
	})
	reg, err := tenantdb.New(connector, tenantdb.WithInitializer(schema.EnsureIndexes))
	require.NoError(t, err)

	tenantID := fmt.Sprintf("t%d", time.Now().UnixNano())
	conn, err := reg.Resolve(context.Background(), tenantID)
	require.NoError(t, err)

	t.Cleanup(func() {
		if db, err := conn.Database(); err == nil {
			_ = db.Drop(context.Background())
		}
		_ = reg.Close(context.Background())
	})

	set, err := schema.NewBinder().Bind(conn)
	require.NoError(t, err)
	return set, conn
}

func TestIntegration_PatientLifecycle(t *testing.T) {
	set := openTenant(t)
	ctx := context.Background()

	chosen := bson.NewObjectID()
	p := &schema.Patient{ID: chosen, FirstName: "Ada", LastName: "Lovelace", Email: "ADA@example.com"}
	require.NoError(t, set.Patients.Create(ctx, p))
	require.False(t, p.ID.IsZero())
	assert.NotEqual(t, chosen, p.ID)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.True(t, *p.IsActive)

	got, err := set.Patients.Get(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", got.LastName)

	updated, err := set.Patients.Update(ctx, p.ID.Hex(), &schema.Patient{FirstName: "Augusta", LastName: "Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.True(t, p.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(p.CreatedAt))

	archived, err := set.Patients.Archive(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.False(t, *archived.IsActive)

	active, err := set.Patients.List(ctx, schema.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := set.Patients.List(ctx, schema.ListOptions{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = set.Patients.Get(ctx, "65f000000000000000000000")
	assert.ErrorIs(t, err, schema.ErrNotFound)
}

func TestIntegration_StaffEmailUnique(t *testing.T) {
	set := openTenant(t)
	ctx := context.Background()

	require.NoError(t, set.Staff.Create(ctx, &schema.Staff{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}))
	err := set.Staff.Create(ctx, &schema.Staff{FirstName: "G", LastName: "H", Email: "Grace@Example.com"})
	assert.ErrorIs(t, err, schema.ErrDuplicate)
}

func TestIntegration_Settings(t *testing.T) {
	set := openTenant(t)
	ctx := context.Background()

	_, err := set.Settings.Current(ctx)
	assert.ErrorIs(t, err, schema.ErrNotFound)

	saved, err := set.Settings.Save(ctx, &schema.Settings{ClinicName: "Downtown Physio"})
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultTimezone, saved.Timezone)

	resaved, err := set.Settings.Save(ctx, &schema.Settings{ClinicName: "Uptown Physio", Timezone: "Europe/Berlin"})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, resaved.ID)
	assert.Equal(t, schema.SettingsID, saved.ID)

	current, err := set.Settings.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Uptown Physio", current.ClinicName)
}

func TestIntegration_SettingsConcurrentFirstSave(t *testing.T) {
	set, conn := openTenantConn(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	wg.Add(writers)
	for i := range writers {
		go func() {
			defer wg.Done()
			_, errs[i] = set.Settings.Save(ctx, &schema.Settings{ClinicName: fmt.Sprintf("Clinic %d", i)})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	db, err := conn.Database()
	require.NoError(t, err)
	count, err := db.Collection(schema.SettingsCollectionName).CountDocuments(ctx, bson.D{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	saved, err := set.Settings.Save(ctx, &schema.Settings{ClinicName: "Final"})
	require.NoError(t, err)
	current, err := set.Settings.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.ClinicName, current.ClinicName)
}
