// Command planeforge runs the idle plane-forging simulation and serves it
// over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/planeforge/internal/api"
	"github.com/talgya/planeforge/internal/config"
	"github.com/talgya/planeforge/internal/engine"
	"github.com/talgya/planeforge/internal/entropy"
	"github.com/talgya/planeforge/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("Planeforge starting", "seed", cfg.Seed, "interval", cfg.TickInterval, "save_every", cfg.SaveEvery)

	settings, err := cfg.Settings()
	if err != nil {
		slog.Error("failed to load balance", "path", cfg.BalancePath, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		slog.Error("failed to create data dir", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Generate ──────────────────────────────────────────────
	sim, err := db.LoadSimulation(ctx, settings)
	switch {
	case errors.Is(err, persistence.ErrNoState):
		slog.Info("no saved state, starting a new game")
		if sim, err = engine.NewSimulation(settings); err != nil {
			slog.Error("failed to create simulation", "error", err)
			os.Exit(1)
		}
		if err := db.SaveSimulation(ctx, sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	case err != nil:
		slog.Error("failed to load saved state", "error", err)
		os.Exit(1)
	default:
		slog.Info("saved state restored",
			"tick", sim.LastTick,
			"nodes", sim.Board.Len(),
			"resources", humanize.BigComma(sim.Ledger.Total().Floor().BigInt()),
		)
	}

	// ── Wiring ────────────────────────────────────────────────────────
	hub := api.NewHub()
	runner := engine.NewRunner(sim, entropy.Crypto{})
	runner.OnReport = func(rep engine.StepReport) {
		hub.Publish("step", rep)
		if cfg.SummaryEvery > 0 && rep.Tick%cfg.SummaryEvery == 0 {
			runner.View(func(s *engine.Simulation) { s.LogSummary() })
		}
	}

	save := func() {
		start := time.Now()
		var err error
		runner.View(func(s *engine.Simulation) {
			err = db.SaveSimulation(context.Background(), s)
		})
		if err != nil {
			slog.Error("save failed", "error", err)
			return
		}
		slog.Debug("save complete", "took", time.Since(start))
	}

	eng := engine.NewEngine(cfg.TickInterval)
	eng.SaveEvery = cfg.SaveEvery
	eng.OnStep = func(dt float64) { runner.Step(dt) }
	eng.OnSave = save

	limiter := api.NewRateLimiter(cfg.CommandRate, time.Minute)
	server := &api.Server{
		Runner:         runner,
		Eng:            eng,
		DB:             db,
		Hub:            hub,
		Port:           cfg.Port,
		AdminKey:       cfg.AdminKey,
		CORSOrigins:    cfg.CORSOrigins,
		CommandLimiter: limiter,
	}

	go hub.Run(ctx)
	go limiter.RunCleanup(ctx)
	go func() {
		if err := server.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// ── Start ─────────────────────────────────────────────────────────
	slog.Info("starting simulation (Ctrl+C to stop)")
	eng.Run(ctx)
	slog.Info("shutdown complete")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
