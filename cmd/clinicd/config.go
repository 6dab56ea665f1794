package main

import (
	"errors"

	"github.com/dmitrymomot/clinickit/pkg/evictbus"
	"github.com/dmitrymomot/clinickit/pkg/httpserver"
	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/mongo"
	"github.com/dmitrymomot/clinickit/pkg/redis"
	"github.com/dmitrymomot/clinickit/pkg/tenantdb"
)

const defaultAdminAddr = ":9090"

type appConfig struct {
	Log     logger.Config
	Mongo   mongo.Config
	Tenants tenantdb.Config
	Redis   redis.Config
	Evict   evictbus.Config

	HTTP  httpserver.Config `envPrefix:"HTTP_"`
	Admin httpserver.Config `envPrefix:"ADMIN_HTTP_"`

	// TenantHeader is set by the authenticating gateway in front of the service.
	TenantHeader string `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`
}

// Validate implements config.Validator.
func (c *appConfig) Validate() error {
	if c.HTTP.Addr != "" && c.HTTP.Addr == c.adminAddr() {
		return errors.New("HTTP_ADDR and ADMIN_HTTP_ADDR must differ")
	}
	return nil
}

func (c *appConfig) adminAddr() string {
	if c.Admin.Addr == "" {
		return defaultAdminAddr
	}
	return c.Admin.Addr
}
