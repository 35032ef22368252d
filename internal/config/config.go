package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the environment-driven settings. Flags on individual
// commands override these where both exist.
type Config struct {
	BaseURL       string        `envconfig:"COMBO_API_URL" default:"http://localhost:10000"`
	Port          int           `envconfig:"PORT" default:"10000"`
	DBPath        string        `envconfig:"DB_PATH" default:"./data/combocatalog.db"`
	AdminToken    string        `envconfig:"ADMIN_TOKEN" default:""`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
