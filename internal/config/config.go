package config

import (
	"github.com/caarlos0/env/v11"

	"adrelay/internal/config/configs"
)

// Config aggregates all configuration sections for the application.
// Fields are populated from environment variables using the caarlos0/env
// library; nested structs are tagged with envPrefix so their fields are
// parsed with the given prefix. See the types in the configs package for
// defaults. Use Load to construct a Config.
type Config struct {
	// Env specifies the deployment environment (e.g. prod, dev).
	Env string `env:"ENV" envDefault:"prod"`

	// HTTP holds configuration for the HTTP server.
	HTTP configs.HTTP `envPrefix:"HTTP_"`

	// Log configures the structured logger.
	Log configs.Logger `envPrefix:"LOG_"`

	// Psql configures the authoritative PostgreSQL store.
	Psql configs.Postgres `envPrefix:"PSQL_"`

	// Redis configures the read cache and counter storage.
	Redis configs.Redis `envPrefix:"REDIS_"`

	// IDGen configures the event id generator.
	IDGen configs.Generator `envPrefix:"IDGEN_"`

	// Sync configures the cache synchronizer schedule and cap windows.
	Sync configs.Sync `envPrefix:"SYNC_"`
}

// Load reads configuration from environment variables into a Config. All
// fields fall back to their declared defaults when no environment
// variable is set.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
