package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, read from LEAGUE_* environment variables
type Config struct {
	Env             string        `env:"LEAGUE_ENV" envDefault:"development"`
	Addr            string        `env:"LEAGUE_ADDR" envDefault:":8080"`
	DBPath          string        `env:"LEAGUE_DB_PATH" envDefault:"league.db"`
	DBTimeout       time.Duration `env:"LEAGUE_DB_TIMEOUT" envDefault:"1s"`
	LogLevel        string        `env:"LEAGUE_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"LEAGUE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func (c Config) IsProd() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Load parses and validates the configuration from the process environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.Env {
	case "development", "dev", "test", "production", "prod":
	default:
		errs = append(errs, fmt.Errorf("LEAGUE_ENV: unknown environment %q", c.Env))
	}
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("LEAGUE_ADDR: required"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("LEAGUE_DB_PATH: required"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("LEAGUE_LOG_LEVEL: unknown level %q", c.LogLevel))
	}
	if c.DBTimeout <= 0 {
		errs = append(errs, errors.New("LEAGUE_DB_TIMEOUT: must be positive"))
	}
	return errors.Join(errs...)
}
