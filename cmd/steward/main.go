// Command steward plays a running planeforge game on autopilot.
// It observes state, decides on commands by rule, and queues them via the
// admin command API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/talgya/planeforge/internal/steward"
)

type config struct {
	APIURL      string        `env:"PLANEFORGE_API_URL"          envDefault:"http://localhost:8080"`
	AdminKey    string        `env:"PLANEFORGE_ADMIN_KEY,required"`
	Interval    time.Duration `env:"STEWARD_INTERVAL"            envDefault:"30s"`
	MaxCommands int           `env:"STEWARD_MAX_COMMANDS"        envDefault:"8"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Interval <= 0 {
		slog.Error("STEWARD_INTERVAL must be positive", "interval", cfg.Interval)
		os.Exit(1)
	}

	slog.Info("Planeforge Steward starting",
		"api_url", cfg.APIURL,
		"interval", cfg.Interval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := steward.New(cfg.APIURL, cfg.AdminKey)
	s.Rules.MaxCommands = cfg.MaxCommands

	slog.Info("waiting for planeforge API...")
	if !s.WaitForAPI(ctx, 5*time.Minute) {
		slog.Error("planeforge API did not become ready")
		os.Exit(1)
	}

	s.RunCycle(ctx)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunCycle(ctx)
		case <-ctx.Done():
			slog.Info("shutting down")
			fmt.Println("Steward stopped.")
			return
		}
	}
}
