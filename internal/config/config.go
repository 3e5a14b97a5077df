package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabasePath   string        `env:"DATABASE_PATH" envDefault:"kitchensync.db"`
	Port           string        `env:"PORT" envDefault:"8080"`
	BindAddress    string        `env:"BIND_ADDRESS" envDefault:"127.0.0.1"`
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"INFO"`
	LoginDelay     time.Duration `env:"LOGIN_DELAY" envDefault:"1s"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.LoginDelay < 0 {
		return nil, fmt.Errorf("LOGIN_DELAY must not be negative, got %s", cfg.LoginDelay)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddress + ":" + c.Port
}
