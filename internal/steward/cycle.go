package steward

import (
	"context"
	"log/slog"
	"time"
)

// Steward runs observe, decide, act cycles.
type Steward struct {
	Observer *Observer
	Actor    *Actor
	Rules    Rules
}

// New wires a Steward against one API base URL.
func New(apiURL, adminKey string) *Steward {
	return &Steward{
		Observer: NewObserver(apiURL),
		Actor:    NewActor(apiURL, adminKey),
	}
}

// RunCycle executes one cycle and returns the number of commands accepted.
func (s *Steward) RunCycle(ctx context.Context) int {
	snap, err := s.Observer.Observe(ctx)
	if err != nil {
		slog.Error("observation failed", "error", err)
		return 0
	}
	slog.Info("observation complete",
		"tick", snap.Status.Tick,
		"nodes", len(snap.Board.Nodes),
		"kinds", len(snap.Ledger),
		"regions", len(snap.Regions),
		"pending", snap.Status.Pending,
	)

	cmds := s.Rules.Decide(snap)
	if len(cmds) == 0 {
		slog.Info("steward cycle complete, nothing to do")
		return 0
	}

	accepted := 0
	for _, cmd := range cmds {
		if err := s.Actor.Act(ctx, cmd); err != nil {
			slog.Warn("command rejected", "type", cmd.Type, "error", err)
			continue
		}
		accepted++
	}
	slog.Info("steward cycle complete", "decided", len(cmds), "accepted", accepted)
	return accepted
}

// WaitForAPI polls the status endpoint with exponential backoff until it
// responds or timeout elapses.
func (s *Steward) WaitForAPI(ctx context.Context, timeout time.Duration) bool {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(timeout)

	for {
		if s.Observer.Ready(ctx) {
			slog.Info("planeforge API is ready")
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		slog.Info("planeforge not ready, retrying...", "backoff", backoff)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
