package steward

import (
	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/economy"
	"github.com/talgya/planeforge/internal/engine"
)

// DefaultMaxCommands caps the commands produced by one Decide call.
const DefaultMaxCommands = 8

// Rules turns an observation into commands. The zero value uses the stock
// registry and DefaultMaxCommands.
type Rules struct {
	Registry    board.Registry
	MaxCommands int
}

// Decide returns the commands to send for snap, in order. It is a pure
// function of its inputs.
func (r Rules) Decide(snap *Snapshot) []engine.Command {
	reg := r.Registry
	if reg == nil {
		reg = board.DefaultRegistry()
	}
	limit := r.MaxCommands
	if limit <= 0 {
		limit = DefaultMaxCommands
	}

	var (
		cmds  []engine.Command
		count = map[board.TypeTag]int{}
	)
	for _, n := range snap.Board.Nodes {
		count[n.Tag()]++
	}

	// Build order: a quarry and a tool first so production speeds up.
	if count[board.TypeQuarry] == 0 {
		cmds = append(cmds, craft(board.TypeQuarry, ""))
	}
	if count[board.TypeTool] == 0 {
		cmds = append(cmds, craft(board.TypeTool, board.ToolPickaxe.String()))
	}

	// One portal per discovered tier.
	opened := map[economy.ResourceKind]bool{}
	for _, rg := range snap.Regions {
		opened[rg.Tier] = true
	}
	for _, e := range snap.Ledger {
		k, ok := economy.ResourceKindFromString(e.Kind)
		if !ok || opened[k] {
			continue
		}
		opened[k] = true
		cmds = append(cmds, engine.Command{Type: engine.CommandSpawnPortal, Resource: k.String()})
	}

	if count[board.TypePortal] > 0 && count[board.TypeEmpowerer] == 0 {
		cmds = append(cmds, craft(board.TypeEmpowerer, ""))
	}

	cmds = append(cmds, r.links(reg, snap.Board)...)

	if len(cmds) > limit {
		cmds = cmds[:limit]
	}
	return cmds
}

// links powers idle machines and fills their free capacity with accepted
// targets they are not yet connected to.
func (r Rules) links(reg board.Registry, view BoardView) []engine.Command {
	var cmds []engine.Command
	for _, m := range view.Nodes {
		l, ok := board.LinkageOf(m.State)
		if !ok {
			continue
		}
		if sw, ok := m.State.(board.Switchable); ok && !sw.IsPowered() {
			on := true
			cmds = append(cmds, engine.Command{Type: engine.CommandPower, Node: m.ID, On: &on})
		}

		free := board.EffectiveCapacity(l.CapacityBase, view.Bonus) - len(l.Links)
		linked := make(map[board.Link]bool, len(l.Links))
		for _, link := range l.Links {
			linked[link] = true
		}
		for _, t := range view.Nodes {
			if free <= 0 {
				break
			}
			if !reg.Accepts(m.Tag(), t.Tag()) {
				continue
			}
			link, ok := board.LinkOf(t)
			if !ok || linked[link] {
				continue
			}
			linked[link] = true
			free--
			cmds = append(cmds, engine.Command{Type: engine.CommandConnect, Node: m.ID, Target: t.ID})
		}
	}
	return cmds
}

func craft(tag board.TypeTag, tool string) engine.Command {
	return engine.Command{Type: engine.CommandCraft, Machine: tag.String(), Tool: tool}
}
