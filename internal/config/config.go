package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the post ledger service.
// Environment variables are parsed from the POST_LEDGER_ prefix.
type Config struct {
	// Storage driver: sqlite (default, local file) or postgres.
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/ledger.db"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Every store call runs under this timeout; a timeout surfaces to the
	// caller as a retryable failure.
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`

	// Pending restore confirmations expire after this window.
	ConfirmTTL time.Duration `envconfig:"CONFIRM_TTL" default:"10m"`

	// Health probe cadence.
	HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"30s"`
}

// ResolveDefaults validates the driver choice and its required settings.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.ConfirmTTL <= 0 {
		return fmt.Errorf("CONFIRM_TTL must be positive")
	}
	return nil
}

// New creates a Config by parsing POST_LEDGER_-prefixed environment
// variables, e.g. POST_LEDGER_DB_DRIVER, POST_LEDGER_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("POST_LEDGER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Dur("store_timeout", cfg.StoreTimeout).
		Dur("confirm_ttl", cfg.ConfirmTTL).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for tests: sqlite in a temp-style
// relative path, short timeouts.
func NewForTesting() *Config {
	return &Config{
		DBDriver:       "sqlite",
		SQLitePath:     "ledger_test.db",
		HTTPPort:       8080,
		StoreTimeout:   2 * time.Second,
		ConfirmTTL:     time.Minute,
		HealthInterval: time.Second,
	}
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
