package store

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config selects the database. Driver is "sqlite3" or "pgx".
type Config struct {
	Driver string `env:"STORE_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"STORE_DSN" envDefault:"shroud.db"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error getting env configs: %w", err)
	}
	return cfg, nil
}
