package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Classifier policies
const (
	PolicyAbsolute = "absolute"
	PolicyRelative = "relative"
)

// Config holds the daemon settings, read from environment variables.
type Config struct {
	// StoreDriver selects the persistence backend: sqlite or postgres.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	// SQLitePath overrides the default database location under the user
	// config dir.
	SQLitePath string `env:"SQLITE_PATH"`
	// DatabaseURL is the postgres connection string, required when
	// StoreDriver is postgres.
	DatabaseURL string `env:"DATABASE_URL"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8090"`

	// WebhookURL enables the Discord-compatible webhook sink when set.
	WebhookURL string `env:"WEBHOOK_URL"`

	// ReloadInterval is how often the daemon re-checks the weight sheets.
	ReloadInterval time.Duration `env:"RELOAD_INTERVAL" envDefault:"1h"`

	// AssetDir is an extra directory searched for weight sheets first.
	AssetDir string `env:"ASSET_DIR"`

	// ClassifierPolicy selects the rarity policy: absolute or relative.
	// The two policies treat zero-weight rows differently and are never
	// mixed within one load.
	ClassifierPolicy string `env:"CLASSIFIER_POLICY" envDefault:"absolute"`
}

// LoadEnvFile loads the first .env file found among the usual locations.
func LoadEnvFile() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("[Config] Loaded .env from: %s", path)
			return
		}
	}
	log.Println("[Config] No .env file found, using environment variables")
}

// FromEnv parses and validates the configuration.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.ClassifierPolicy {
	case PolicyAbsolute, PolicyRelative:
	default:
		return fmt.Errorf("unknown CLASSIFIER_POLICY %q", c.ClassifierPolicy)
	}

	if c.ReloadInterval <= 0 {
		return fmt.Errorf("RELOAD_INTERVAL must be positive, got %s", c.ReloadInterval)
	}

	return nil
}
