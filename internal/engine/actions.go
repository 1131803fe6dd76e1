package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/economy"
	"github.com/talgya/planeforge/internal/world"
)

var (
	ErrNotInvestments = errors.New("node is not an investments machine")
	ErrBadAmount      = errors.New("amount must be positive")
	ErrNotCraftable   = errors.New("node type cannot be crafted")
)

// anchor is where new nodes are placed near: the selected node, else the core.
func (s *Simulation) anchor() board.Position {
	if id, ok := s.Board.Selected(); ok {
		if n, ok := s.Board.Get(id); ok {
			return n.Position
		}
	}
	if core, ok := s.Board.Core(); ok {
		return core.Position
	}
	return board.Position{}
}

// SpawnPortal opens a new plane of the given tier and places its portal.
func (s *Simulation) SpawnPortal(tier economy.ResourceKind) (*world.Region, *board.Node, error) {
	if !tier.Valid() {
		return nil, nil, fmt.Errorf("spawn portal: %w", economy.ErrUnknownKind)
	}
	r := world.NewRegion(s.Seeds.Uint32(), tier)
	s.Atlas.Add(r)
	n := s.Board.Add(board.PortalState{Power: board.Power{Powered: true}, RegionID: r.ID}, s.anchor())

	s.EmitEvent("region", fmt.Sprintf("A portal to %s opens (%s tier)", r.DisplayName, tier))
	slog.Info("portal spawned", "region", r.DisplayName, "id", r.ID, "seed", r.SourceSeed, "tier", tier, "node", n.ID)
	return r, n, nil
}

// Craft places a new machine, tool, or trash node. tool is only read for
// tool nodes.
func (s *Simulation) Craft(tag board.TypeTag, tool board.ToolKind) (*board.Node, error) {
	var st board.State
	switch {
	case tag == board.TypeTool:
		if !tool.Valid() {
			return nil, fmt.Errorf("craft tool %d: %w", tool, ErrNotCraftable)
		}
		st = board.ToolState{Kind: tool}
	case tag == board.TypeTrash:
		st = board.TrashState{}
	case board.IsConnector(tag):
		m, err := s.Board.Registry().NewMachine(tag)
		if err != nil {
			return nil, fmt.Errorf("craft %s: %w", tag, err)
		}
		st = m
	default:
		return nil, fmt.Errorf("craft %s: %w", tag, ErrNotCraftable)
	}

	n := s.Board.Add(st, s.anchor())
	s.refreshCapacity()
	slog.Debug("node crafted", "tag", tag, "node", n.ID)
	return n, nil
}

// Discard drops node id onto a trash node. Discarding a portal closes its
// plane.
func (s *Simulation) Discard(id, trashID board.NodeID) error {
	n, err := s.Board.Discard(id, trashID)
	if err != nil {
		return err
	}
	if p, ok := n.State.(board.PortalState); ok {
		if r, ok := s.Atlas.Get(p.RegionID); ok {
			s.Atlas.Remove(r.ID)
			s.EmitEvent("region", fmt.Sprintf("The portal to %s closes", r.DisplayName))
		}
	}
	s.refreshCapacity()
	return nil
}

// Connect toggles a machine connection at the current capacity bonus.
func (s *Simulation) Connect(id, target board.NodeID) (board.Outcome, error) {
	out, err := s.Board.Connect(id, target, s.CapacityBonus)
	if err != nil {
		return 0, err
	}
	s.refreshCapacity()
	return out, nil
}

// SetPowered switches a node on or off.
func (s *Simulation) SetPowered(id board.NodeID, on bool) error {
	if err := s.Board.SetPowered(id, on); err != nil {
		return err
	}
	s.refreshCapacity()
	return nil
}

// TogglePower flips a node's power switch.
func (s *Simulation) TogglePower(id board.NodeID) (bool, error) {
	on, err := s.Board.TogglePowered(id)
	if err != nil {
		return false, err
	}
	s.refreshCapacity()
	return on, nil
}

// Select makes id the selected node. A selected node counts as active.
func (s *Simulation) Select(id board.NodeID) error {
	if err := s.Board.Select(id); err != nil {
		return err
	}
	s.refreshCapacity()
	return nil
}

// Deselect clears the selection.
func (s *Simulation) Deselect() {
	s.Board.ClearSelection()
	s.refreshCapacity()
}

// Invest moves amount of kind from the ledger into an investments node.
func (s *Simulation) Invest(id board.NodeID, kind economy.ResourceKind, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("invest %s: %w", amount, ErrBadAmount)
	}
	n, ok := s.Board.Get(id)
	if !ok {
		return fmt.Errorf("invest into %d: %w", id, board.ErrNodeNotFound)
	}
	inv, ok := n.State.(board.InvestmentsState)
	if !ok {
		return fmt.Errorf("invest into %s %d: %w", n.Tag(), id, ErrNotInvestments)
	}
	if err := s.Ledger.Spend(kind, amount); err != nil {
		return fmt.Errorf("invest %s %s: %w", amount, kind, err)
	}

	before, _ := economy.LevelProgress(s.Settings.Formula, inv.Spent)
	inv.Spent = inv.Spent.Add(amount)
	after, _ := economy.LevelProgress(s.Settings.Formula, inv.Spent)
	if err := s.Board.Replace(id, inv); err != nil {
		return err
	}
	if after != before {
		s.EmitEvent("capacity", fmt.Sprintf("Investments %d reached level %d", id, after))
	}
	s.refreshCapacity()
	return nil
}

// SetBaseBonus sets the external capacity modifier and re-enforces.
func (s *Simulation) SetBaseBonus(n int) {
	s.Settings.BaseCapacityBonus = n
	s.refreshCapacity()
}
