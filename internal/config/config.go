// Package config loads runtime settings from the environment and balance
// values from a YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration.
type Config struct {
	DBPath       string        `env:"PLANEFORGE_DB_PATH"       envDefault:"data/planeforge.db"`
	Port         int           `env:"PLANEFORGE_PORT"          envDefault:"8080"`
	Seed         uint32        `env:"PLANEFORGE_SEED"          envDefault:"42"`
	AdminKey     string        `env:"PLANEFORGE_ADMIN_KEY"`
	TickInterval time.Duration `env:"PLANEFORGE_TICK_INTERVAL" envDefault:"1s"`
	SaveEvery    uint64        `env:"PLANEFORGE_SAVE_EVERY"    envDefault:"300"`
	BalancePath  string        `env:"PLANEFORGE_BALANCE_PATH"`
	CORSOrigins  []string      `env:"PLANEFORGE_CORS_ORIGINS"  envSeparator:","`
	CommandRate  int           `env:"PLANEFORGE_COMMAND_RATE"  envDefault:"120"` // per minute per IP
	LogLevel     string        `env:"PLANEFORGE_LOG_LEVEL"     envDefault:"info"`
	SummaryEvery uint64        `env:"PLANEFORGE_SUMMARY_EVERY" envDefault:"60"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from vars instead of the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("tick interval %v must be positive", cfg.TickInterval)
	}
	return cfg, nil
}
