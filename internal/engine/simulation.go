// Simulation ties the board, ledger, planes and production together and
// advances them one step at a time.
package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/economy"
	"github.com/talgya/planeforge/internal/entropy"
	"github.com/talgya/planeforge/internal/world"
)

const maxEvents = 1000

// Simulation holds the complete game state. It is built once per game and
// is not safe for concurrent use; Runner serialises access.
type Simulation struct {
	Board    *board.Board
	Ledger   *economy.Ledger
	Atlas    *world.Atlas
	Producer *Producer
	Seeds    *entropy.Stream // portal seed source
	Settings Settings

	CapacityBonus int    // last computed dynamic bonus
	LastTick      uint64 // steps completed
	Events        []Event

	queue commandQueue
}

// Event is a notable occurrence.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "resource", "region", "capacity", "command"
}

// StepReport summarises one step.
type StepReport struct {
	Tick          uint64                 `json:"tick"`
	Grants        Grants                 `json:"grants"`
	Discovered    []economy.ResourceKind `json:"discovered,omitempty"`
	Speed         int                    `json:"speed"`
	CapacityBonus int                    `json:"capacity_bonus"`
	Progress      float64                `json:"progress"`
}

// NewSimulation creates a fresh game: an empty ledger and a board holding
// only the powered core node.
func NewSimulation(st Settings) (*Simulation, error) {
	s, err := NewBlankSimulation(st)
	if err != nil {
		return nil, err
	}
	s.Board.Add(board.CoreState{Power: board.Power{Powered: true}}, board.Position{})
	s.CapacityBonus = s.computeBonus()
	return s, nil
}

// NewBlankSimulation creates a simulation with an empty board, for callers
// restoring saved state.
func NewBlankSimulation(st Settings) (*Simulation, error) {
	weights, err := economy.NewWeightTable(st.Weights)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	if st.Formula == nil {
		st.Formula = DefaultSettings().Formula
	}

	reg := board.DefaultRegistry().WithCapacities(st.Capacities)
	placer := board.NewPlacer(st.NodeSize, int64(st.Seed))

	return &Simulation{
		Board:    board.New(reg, placer),
		Ledger:   economy.NewLedger(),
		Atlas:    world.NewAtlas(),
		Producer: NewProducer(weights, st.CooldownSeconds),
		Seeds:    entropy.NewStream(st.Seed),
		Settings: st,
	}, nil
}

// Step applies queued commands, re-enforces capacity, runs production when
// the core is active, and books the grants.
func (s *Simulation) Step(dt float64, src entropy.Source) StepReport {
	s.drainCommands()
	s.refreshCapacity()

	speed := s.Speed()
	var grants Grants
	if core, ok := s.Board.Core(); ok && s.Board.Active(core.ID) {
		grants = s.Producer.Tick(dt*float64(speed), src)
	} else {
		s.Producer.Idle(dt)
	}

	discovered := s.applyGrants(grants)
	s.LastTick++
	s.trimEvents()

	return StepReport{
		Tick:          s.LastTick,
		Grants:        grants,
		Discovered:    discovered,
		Speed:         speed,
		CapacityBonus: s.CapacityBonus,
		Progress:      s.Producer.Progress,
	}
}

// Speed is the production multiplier: one plus every tool wired into an
// active quarry.
func (s *Simulation) Speed() int {
	speed := 1
	for _, n := range s.Board.Nodes() {
		if q, ok := n.State.(board.QuarryState); ok && s.Board.Active(n.ID) {
			speed += len(q.Links)
		}
	}
	return speed
}

// applyGrants books grants into the ledger, places a resource node for each
// kind seen for the first time, and credits active portals of that tier.
func (s *Simulation) applyGrants(grants Grants) []economy.ResourceKind {
	var discovered []economy.ResourceKind
	anchor := board.Position{}
	if core, ok := s.Board.Core(); ok {
		anchor = core.Position
	}

	for _, k := range grants.Kinds() {
		n := grants[k]
		if n <= 0 {
			continue
		}
		if s.Ledger.Grant(k, decimal.NewFromInt(n)) {
			discovered = append(discovered, k)
			if _, ok := s.Board.FindResource(k); !ok {
				node := s.Board.Add(board.ResourceState{Kind: k}, anchor)
				s.EmitEvent("resource", fmt.Sprintf("Discovered %s (node %d)", k, node.ID))
			}
		}
	}

	for _, n := range s.Board.Nodes() {
		p, ok := n.State.(board.PortalState)
		if !ok || !s.Board.Active(n.ID) {
			continue
		}
		r, ok := s.Atlas.Get(p.RegionID)
		if !ok {
			continue
		}
		if amt := grants[r.Tier]; amt > 0 {
			r.Accumulated = r.Accumulated.Add(decimal.NewFromInt(amt))
		}
	}
	return discovered
}

// computeBonus derives the dynamic capacity bonus from board state.
func (s *Simulation) computeBonus() int {
	bonus := s.Settings.BaseCapacityBonus
	for _, n := range s.Board.Nodes() {
		if !s.Board.Active(n.ID) {
			continue
		}
		switch st := n.State.(type) {
		case board.EmpowererState:
			bonus += len(st.Links)
		case board.InvestmentsState:
			level, _ := economy.LevelProgress(s.Settings.Formula, st.Spent)
			bonus += int(level)
		}
	}
	return bonus
}

// Settle recomputes the capacity bonus and enforces it, for callers that
// edited the board directly.
func (s *Simulation) Settle() {
	s.refreshCapacity()
}

// refreshCapacity recomputes the bonus and truncates every machine to it.
// Truncating an empowerer can lower the bonus again, so it repeats until
// nothing more is trimmed.
func (s *Simulation) refreshCapacity() {
	for {
		bonus := s.computeBonus()
		if bonus != s.CapacityBonus {
			slog.Debug("capacity bonus changed", "from", s.CapacityBonus, "to", bonus)
		}
		s.CapacityBonus = bonus

		trimmed := s.Board.EnforceAll(bonus)
		if len(trimmed) == 0 {
			return
		}
		s.EmitEvent("capacity", fmt.Sprintf("Capacity bonus %d disconnected machines %v", bonus, trimmed))
		slog.Info("connections trimmed", "bonus", bonus, "nodes", trimmed)
	}
}

// EmitEvent records an event.
func (s *Simulation) EmitEvent(category, desc string) {
	s.Events = append(s.Events, Event{Tick: s.LastTick, Description: desc, Category: category})
}

func (s *Simulation) trimEvents() {
	if len(s.Events) > maxEvents {
		s.Events = slices.Clone(s.Events[len(s.Events)-maxEvents:])
	}
}

// LogSummary writes a one-line status report.
func (s *Simulation) LogSummary() {
	total := s.Ledger.Total().Floor().BigInt()
	slog.Info("simulation summary",
		"tick", s.LastTick,
		"nodes", s.Board.Len(),
		"regions", s.Atlas.Len(),
		"kinds", len(s.Ledger.Kinds()),
		"total_resources", humanize.BigComma(total),
		"capacity_bonus", s.CapacityBonus,
		"speed", s.Speed(),
	)
}
