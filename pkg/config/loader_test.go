package config_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinickit/pkg/config"
)

type defaultsConfig struct {
	Name    string        `env:"CONFIG_TEST_DEFAULT_NAME" envDefault:"clinicd"`
	Limit   int           `env:"CONFIG_TEST_DEFAULT_LIMIT" envDefault:"50"`
	Timeout time.Duration `env:"CONFIG_TEST_DEFAULT_TIMEOUT" envDefault:"10s"`
}

type cachedConfig struct {
	Value string `env:"CONFIG_TEST_CACHED"`
}

type requiredConfig struct {
	URL string `env:"CONFIG_TEST_REQUIRED_URL,required"`
}

type validatedConfig struct {
	Min int `env:"CONFIG_TEST_MIN" envDefault:"1"`
	Max int `env:"CONFIG_TEST_MAX" envDefault:"10"`
}

func (c *validatedConfig) Validate() error {
	if c.Min > c.Max {
		return errors.New("min must not exceed max")
	}
	return nil
}

type fileConfig struct {
	Value string   `env:"CONFIG_TEST_FILE_VALUE"`
	List  []string `env:"CONFIG_TEST_FILE_LIST" envSeparator:","`
}

type nestedConfig struct {
	Primary  defaultsConfig
	Prefixed struct {
		Addr string `env:"ADDR" envDefault:":8080"`
	} `envPrefix:"CONFIG_TEST_ADMIN_"`
}

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Parse[defaultsConfig]()
		require.NoError(t, err)
		assert.Equal(t, "clinicd", cfg.Name)
		assert.Equal(t, 50, cfg.Limit)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_DEFAULT_LIMIT", "5")
		t.Setenv("CONFIG_TEST_DEFAULT_TIMEOUT", "250ms")

		cfg, err := config.Parse[defaultsConfig]()
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Limit)
		assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	})

	t.Run("missing required value", func(t *testing.T) {
		_, err := config.Parse[requiredConfig]()
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("malformed value", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_DEFAULT_TIMEOUT", "soon")
		_, err := config.Parse[defaultsConfig]()
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("validate hook", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_MIN", "20")
		_, err := config.Parse[validatedConfig]()
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("nested and prefixed structs", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_ADMIN_ADDR", ":9090")
		cfg, err := config.Parse[nestedConfig]()
		require.NoError(t, err)
		assert.Equal(t, "clinicd", cfg.Primary.Name)
		assert.Equal(t, ":9090", cfg.Prefixed.Addr)
	})
}

func TestLoad(t *testing.T) {
	t.Run("nil pointer", func(t *testing.T) {
		var cfg *cachedConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("caches per type", func(t *testing.T) {
		config.ResetCache()
		t.Cleanup(config.ResetCache)

		t.Setenv("CONFIG_TEST_CACHED", "first")
		var first cachedConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("CONFIG_TEST_CACHED", "second")
		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)

		config.ResetCache()
		var third cachedConfig
		require.NoError(t, config.Load(&third))
		assert.Equal(t, "second", third.Value)
	})

	t.Run("must load panics on error", func(t *testing.T) {
		config.ResetCache()
		t.Cleanup(config.ResetCache)

		assert.Panics(t, func() {
			var cfg requiredConfig
			config.MustLoad(&cfg)
		})
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("reads file without overriding", func(t *testing.T) {
		t.Setenv("CONFIG_TEST_FILE_VALUE", "from_env")
		t.Setenv("CONFIG_TEST_FILE_LIST", "")
		require.NoError(t, os.Unsetenv("CONFIG_TEST_FILE_LIST"))

		require.NoError(t, config.LoadEnv("testdata/test.env"))

		cfg, err := config.Parse[fileConfig]()
		require.NoError(t, err)
		assert.Equal(t, "from_env", cfg.Value)
		assert.Equal(t, []string{"a", "b", "c"}, cfg.List)
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.LoadEnv("testdata/missing.env")
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	})
}
