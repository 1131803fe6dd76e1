// Package api provides the HTTP API for observing and steering a game.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/engine"
	"github.com/talgya/planeforge/internal/persistence"
	"github.com/talgya/planeforge/internal/world"
)

// Server serves simulation state over HTTP.
type Server struct {
	Runner      *engine.Runner
	Eng         *engine.Engine
	DB          *persistence.DB // nil disables snapshots
	Hub         *Hub            // nil disables the stream
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string

	// CommandLimiter throttles POST /api/v1/command per IP. Nil = no limit.
	CommandLimiter *RateLimiter
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/board", s.handleBoard)
	mux.HandleFunc("GET /api/v1/ledger", s.handleLedger)
	mux.HandleFunc("GET /api/v1/regions", s.handleRegions)
	mux.HandleFunc("GET /api/v1/region/{id}", s.handleRegionDetail)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	if s.Hub != nil {
		mux.HandleFunc("GET /api/v1/stream", s.Hub.ServeWS)
	}

	// Admin endpoints (POST, require bearer token).
	command := s.adminOnly(s.handleCommand)
	if s.CommandLimiter != nil {
		command = RateLimitMiddleware(s.CommandLimiter, command)
	}
	mux.HandleFunc("POST /api/v1/command", command)
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Run serves the API until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no PLANEFORGE_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status map[string]any
	s.Runner.View(func(sim *engine.Simulation) {
		total := sim.Ledger.Total()
		status = map[string]any{
			"name":             "Planeforge",
			"tick":             sim.LastTick,
			"nodes":            sim.Board.Len(),
			"regions":          sim.Atlas.Len(),
			"production_speed": sim.Speed(),
			"capacity_bonus":   sim.CapacityBonus,
			"progress":         sim.Producer.Progress,
			"kinds_discovered": len(sim.Ledger.Kinds()),
			"total_resources":  total,
			"total_display":    humanize.BigComma(total.Floor().BigInt()),
			"pending_commands": sim.Pending(),
		}
	})
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
	}
	writeJSON(w, status)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		Nodes    []*board.Node `json:"nodes"`
		Selected board.NodeID  `json:"selected,omitempty"`
		Bonus    int           `json:"capacity_bonus"`
	}
	s.Runner.View(func(sim *engine.Simulation) {
		resp.Nodes = sim.Board.Nodes()
		resp.Selected, _ = sim.Board.Selected()
		resp.Bonus = sim.CapacityBonus
	})
	writeJSON(w, resp)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Kind    string          `json:"kind"`
		Amount  decimal.Decimal `json:"amount"`
		Display string          `json:"display"`
		Cooling float64         `json:"cooldown,omitempty"`
	}
	var entries []entry
	s.Runner.View(func(sim *engine.Simulation) {
		for _, k := range sim.Ledger.Kinds() {
			amt := sim.Ledger.Amount(k)
			entries = append(entries, entry{
				Kind:    k.String(),
				Amount:  amt,
				Display: humanize.BigComma(amt.Floor().BigInt()),
				Cooling: sim.Producer.Cooldowns.Remaining(k),
			})
		}
	})
	writeJSON(w, entries)
}

type regionView struct {
	*world.Region
	Primary    string `json:"primary_hex"`
	Background string `json:"background_hex"`
	Portal     uint64 `json:"portal_node,omitempty"`
	Active     bool   `json:"active"`
}

func viewRegion(sim *engine.Simulation, r *world.Region) regionView {
	v := regionView{
		Region:     r,
		Primary:    r.PrimaryColor.Hex(),
		Background: r.BackgroundColor.Hex(),
	}
	if n, ok := sim.Board.FindPortal(r.ID); ok {
		v.Portal = uint64(n.ID)
		v.Active = sim.Board.Active(n.ID)
	}
	return v
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	var out []regionView
	s.Runner.View(func(sim *engine.Simulation) {
		for _, reg := range sim.Atlas.List() {
			out = append(out, viewRegion(sim, reg))
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleRegionDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var (
		out   regionView
		found bool
	)
	s.Runner.View(func(sim *engine.Simulation) {
		reg, ok := sim.Atlas.Get(id)
		if !ok {
			return
		}
		found = true
		out = viewRegion(sim, reg)
	})
	if !found {
		http.Error(w, "region not found", http.StatusNotFound)
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	category := r.URL.Query().Get("category")

	var events []engine.Event
	s.Runner.View(func(sim *engine.Simulation) {
		for _, e := range sim.Events {
			if category == "" || e.Category == category {
				events = append(events, e)
			}
		}
	})

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd engine.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := s.Runner.Enqueue(cmd); err != nil {
		switch {
		case errors.Is(err, engine.ErrQueueFull):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	slog.Info("command queued", "type", cmd.Type, "node", cmd.Node)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"queued": cmd.Type})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > 1000 {
		http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
		return
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	var (
		tick uint64
		err  error
	)
	s.Runner.View(func(sim *engine.Simulation) {
		tick = sim.LastTick
		err = s.DB.SaveSimulation(r.Context(), sim)
	})
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    tick,
		"message": "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
