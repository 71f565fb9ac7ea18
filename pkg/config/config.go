// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds app-wide settings. Chain and token data are compiled in
// (pkg/chains); only operational knobs live here.
type Config struct {
	DataDir         string `envconfig:"DATA_DIR"`
	LogFile         string `envconfig:"LOG_FILE"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	RefreshSeconds  int    `envconfig:"REFRESH_SECONDS" default:"30"`
	PriceSeconds    int    `envconfig:"PRICE_SECONDS" default:"45"`
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8080"`
	AuthGateSeconds int    `envconfig:"AUTH_GATE_SECONDS" default:"60"`
}

// Load reads CRYPTRAIL_* environment variables and fills defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("cryptrail", cfg); err != nil {
		return nil, fmt.Errorf("process config: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".cryptrail")
	}
	return cfg, nil
}

// RefreshInterval returns the balance/gas polling interval.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// PriceInterval returns the market price polling interval.
func (c *Config) PriceInterval() time.Duration {
	return time.Duration(c.PriceSeconds) * time.Second
}

// AuthGateTimeout caps how long a secondary-factor prompt may hang before it
// counts as a denial.
func (c *Config) AuthGateTimeout() time.Duration {
	return time.Duration(c.AuthGateSeconds) * time.Second
}
