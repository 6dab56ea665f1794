// Package mongo provides MongoDB connection management.
//
// New connects the shared client with retries and a ping. TenantConnector
// opens one client per tenant database and is meant to be handed to a
// tenantdb.Registry, which caches and retires those clients.
//
// # Usage
//
//	import (
//		"context"
//
//		"github.com/dmitrymomot/clinickit/pkg/mongo"
//		"github.com/dmitrymomot/clinickit/pkg/tenantdb"
//	)
//
//	func main() {
//		cfg := mongo.Config{
//			ConnectionURL:  "mongodb://localhost:27017",
//			TenantDBPrefix: "clinic_",
//		}
//
//		client, err := mongo.New(context.Background(), cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer client.Disconnect(context.Background())
//
//		registry, err := tenantdb.New(mongo.NewTenantConnector(cfg))
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer registry.Close(context.Background())
//
//		health := mongo.Healthcheck(client)
//		if err := health(context.Background()); err != nil {
//			log.Println("mongo is unavailable:", err)
//		}
//	}
//
// # Configuration
//
// Config is environment-driven. Tenant databases default to the main server;
// set MONGODB_TENANT_URL to keep them on a separate cluster and
// MONGODB_TENANT_DB_PREFIX to namespace their database names.
//
// # Error Handling
//
// Connection failures are joined with ErrFailedToConnectToMongo, so callers
// can match them with errors.Is while keeping the driver error.
//
// # See Also
//
// Documentation for the official driver: https://pkg.go.dev/go.mongodb.org/mongo-driver/v2.
package mongo
