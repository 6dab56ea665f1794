// Package config loads typed configuration from environment variables.
//
// Structs are described with github.com/caarlos0/env/v11 tags and parsed
// once per type; a local .env file is read through github.com/joho/godotenv
// before the first parse when present.
//
//	type Config struct {
//		Tenants tenantdb.Config
//		Mongo   mongo.Config
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Configs implementing Validator are checked right after parsing, so an
// invalid environment fails at startup rather than on first use.
//
// Parse skips the cache and is what tests use together with t.Setenv;
// ResetCache clears cached values between tests that go through Load.
package config
