package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// maxDatabaseNameLength is the server's limit for database names.
const maxDatabaseNameLength = 63

// TenantConnector opens a dedicated client for each tenant database.
// It satisfies tenantdb.Connector; the registry owns the returned client
// and disconnects it when the tenant is evicted.
type TenantConnector struct {
	cfg Config
}

// NewTenantConnector returns a connector for tenant databases described by cfg.
func NewTenantConnector(cfg Config) *TenantConnector {
	return &TenantConnector{cfg: cfg}
}

// DatabaseName returns the database that holds tenantID's data.
func (c *TenantConnector) DatabaseName(tenantID string) string {
	return c.cfg.TenantDBPrefix + tenantID
}

// Connect opens a client, pings it within ctx and returns the tenant database.
// There is no retry loop here: a failed connect is retried on the next request.
func (c *TenantConnector) Connect(ctx context.Context, tenantID string) (*mongo.Database, error) {
	name := c.DatabaseName(tenantID)
	if tenantID == "" || len(name) > maxDatabaseNameLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDatabaseName, name)
	}

	uri := c.cfg.TenantURL
	if uri == "" {
		uri = c.cfg.ConnectionURL
	}

	client, err := connect(ctx, c.cfg.clientOptions(uri, c.cfg.TenantMaxPoolSize))
	if err != nil {
		return nil, errors.Join(ErrFailedToConnectToMongo, err)
	}
	return client.Database(name), nil
}
