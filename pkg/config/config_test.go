package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
service_name = "storefront"

[database]
driver = "postgres"
dsn = "host=localhost user=app dbname=store"

[cart]
mirror = "redis"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "redis", cfg.Cart.Mirror)
	assert.Equal(t, "cartItems", cfg.Cart.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.Cart.TTL())
	assert.Equal(t, "jpy", cfg.Payment.Currency)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL())
	assert.Equal(t, "sql", cfg.Order.Store)
	assert.Equal(t, 200, cfg.Checkout.PersistBackoff)
	assert.Equal(t, 300, cfg.Checkout.LockTTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `service_name = "storefront"`)
	t.Setenv("APP_HTTP_PORT", "9999")
	t.Setenv("APP_PAYMENT_CURRENCY", "usd")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, "usd", cfg.Payment.Currency)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			ServiceName: "storefront",
			HTTP:        HTTPConfig{Port: 8080},
			Database:    DatabaseConfig{Driver: "mysql"},
			Cart:        CartConfig{Mirror: "cookie"},
			Payment:     PaymentConfig{Mode: "stripe"},
			Checkout:    CheckoutConfig{StepTimeout: 20, PersistAttempts: 3, LockTTL: 300},
			Order:       OrderConfig{Store: "sql"},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cases := map[string]func(*Config){
		"missing service name": func(c *Config) { c.ServiceName = "" },
		"bad port":             func(c *Config) { c.HTTP.Port = 70000 },
		"bad driver":           func(c *Config) { c.Database.Driver = "sqlite" },
		"bad mirror":           func(c *Config) { c.Cart.Mirror = "localstorage" },
		"remote without url":   func(c *Config) { c.Payment.Mode = "remote" },
		"remote without token": func(c *Config) { c.Payment.Mode, c.Payment.Endpoint = "remote", "http://payment:8081" },
		"mongo without uri":    func(c *Config) { c.Order.Store = "mongo" },
		"no persist attempts":  func(c *Config) { c.Checkout.PersistAttempts = 0 },
		"no step timeout":      func(c *Config) { c.Checkout.StepTimeout = 0 },
		"lock shorter than run": func(c *Config) {
			c.Checkout.PersistAttempts, c.Checkout.LockTTL = 5, 60
		},
	}
	remote := base()
	remote.Payment = PaymentConfig{Mode: "remote", Endpoint: "http://payment:8081", InternalToken: "secret"}
	require.NoError(t, remote.Validate())

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
