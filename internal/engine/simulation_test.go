package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/economy"
	"github.com/talgya/planeforge/internal/entropy"
)

func newTestSim(t *testing.T) *Simulation {
	t.Helper()
	s, err := NewSimulation(DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustCraft(t *testing.T, s *Simulation, tag board.TypeTag) *board.Node {
	t.Helper()
	n, err := s.Craft(tag, board.ToolPickaxe)
	if err != nil {
		t.Fatalf("craft %s: %v", tag, err)
	}
	return n
}

func linksOf(t *testing.T, s *Simulation, id board.NodeID) []board.Link {
	t.Helper()
	n, ok := s.Board.Get(id)
	if !ok {
		t.Fatalf("node %d missing", id)
	}
	l, ok := board.LinkageOf(n.State)
	if !ok {
		t.Fatalf("node %d has no links", id)
	}
	return l.Links
}

func TestNewSimulationHasCore(t *testing.T) {
	s := newTestSim(t)
	if s.Board.Len() != 1 {
		t.Fatalf("want only the core, got %d nodes", s.Board.Len())
	}
	core, ok := s.Board.Core()
	if !ok || !s.Board.Active(core.ID) {
		t.Fatal("core should exist and be powered")
	}
	if s.Speed() != 1 || s.CapacityBonus != 0 {
		t.Fatalf("want speed 1 bonus 0, got %d %d", s.Speed(), s.CapacityBonus)
	}
}

func TestNewSimulationRejectsBadWeights(t *testing.T) {
	st := DefaultSettings()
	st.Weights = map[economy.ResourceKind]int{economy.ResourceStone: 0}
	if _, err := NewSimulation(st); !errors.Is(err, economy.ErrInvalidWeight) {
		t.Fatalf("want ErrInvalidWeight, got %v", err)
	}
}

func TestStepDiscoversResource(t *testing.T) {
	s := newTestSim(t)
	rep := s.Step(1, &entropy.Fixed{Values: []float64{0}})

	if rep.Grants[economy.ResourceStone] != 1 || rep.Tick != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if len(rep.Discovered) != 1 || rep.Discovered[0] != economy.ResourceStone {
		t.Fatalf("stone should be discovered, got %v", rep.Discovered)
	}
	if _, ok := s.Board.FindResource(economy.ResourceStone); !ok {
		t.Fatal("resource node not placed")
	}
	if !s.Ledger.Amount(economy.ResourceStone).Equal(decimal.NewFromInt(1)) {
		t.Fatalf("ledger stone = %s", s.Ledger.Amount(economy.ResourceStone))
	}

	s.Step(1, &entropy.Fixed{Values: []float64{0}})
	if s.Board.Len() != 2 {
		t.Fatalf("second grant of a known kind placed another node: %d", s.Board.Len())
	}
}

func TestStepGatedByCore(t *testing.T) {
	s := newTestSim(t)
	core, _ := s.Board.Core()
	if err := s.SetPowered(core.ID, false); err != nil {
		t.Fatal(err)
	}
	if rep := s.Step(5, entropy.NewStream(1)); rep.Grants.Total() != 0 {
		t.Fatalf("unpowered core produced %v", rep.Grants)
	}

	if err := s.Select(core.ID); err != nil {
		t.Fatal(err)
	}
	if rep := s.Step(5, entropy.NewStream(1)); rep.Grants.Total() != 5 {
		t.Fatalf("selected core should produce, got %v", rep.Grants)
	}
}

func TestQuarrySpeed(t *testing.T) {
	s := newTestSim(t)
	q := mustCraft(t, s, board.TypeQuarry)
	tool := mustCraft(t, s, board.TypeTool)

	if out, err := s.Connect(q.ID, tool.ID); err != nil || out != board.OutcomeAdded {
		t.Fatalf("connect: %v %v", out, err)
	}
	if s.Speed() != 2 {
		t.Fatalf("want speed 2, got %d", s.Speed())
	}
	if rep := s.Step(1, entropy.NewStream(9)); rep.Grants.Total() != 2 {
		t.Fatalf("speed 2 over 1s should pay 2, got %v", rep.Grants)
	}

	if err := s.SetPowered(q.ID, false); err != nil {
		t.Fatal(err)
	}
	if s.Speed() != 1 {
		t.Fatalf("unpowered quarry still counted: %d", s.Speed())
	}
}

func TestDiscardPortalCascades(t *testing.T) {
	s := newTestSim(t)
	r, portal, err := s.SpawnPortal(economy.ResourceGold)
	if err != nil {
		t.Fatal(err)
	}
	emp := mustCraft(t, s, board.TypeEmpowerer)
	trash := mustCraft(t, s, board.TypeTrash)

	if _, err := s.Connect(emp.ID, portal.ID); err != nil {
		t.Fatal(err)
	}
	if s.CapacityBonus != 1 {
		t.Fatalf("empowerer link should give bonus 1, got %d", s.CapacityBonus)
	}

	if err := s.Discard(portal.ID, trash.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Atlas.Get(r.ID); ok {
		t.Fatal("region survived its portal")
	}
	if links := linksOf(t, s, emp.ID); len(links) != 0 {
		t.Fatalf("empowerer kept dangling links %v", links)
	}
	if s.CapacityBonus != 0 {
		t.Fatalf("bonus should drop to 0, got %d", s.CapacityBonus)
	}
}

func TestDiscardRules(t *testing.T) {
	s := newTestSim(t)
	trash := mustCraft(t, s, board.TypeTrash)
	core, _ := s.Board.Core()

	if err := s.Discard(core.ID, trash.ID); !errors.Is(err, board.ErrUndeletable) {
		t.Fatalf("core discard: want ErrUndeletable, got %v", err)
	}
	dowsing := mustCraft(t, s, board.TypeDowsing)
	if err := s.Discard(dowsing.ID, core.ID); !errors.Is(err, board.ErrNotTrash) {
		t.Fatalf("discard onto core: want ErrNotTrash, got %v", err)
	}
}

func TestCapacityBonusFixpoint(t *testing.T) {
	s := newTestSim(t)
	_, p1, _ := s.SpawnPortal(economy.ResourceStone)
	_, p2, _ := s.SpawnPortal(economy.ResourceDirt)
	emp := mustCraft(t, s, board.TypeEmpowerer)

	for _, p := range []*board.Node{p1, p2} {
		if out, err := s.Connect(emp.ID, p.ID); err != nil || out != board.OutcomeAdded {
			t.Fatalf("connect %d: %v %v", p.ID, out, err)
		}
	}
	if s.CapacityBonus != 2 {
		t.Fatalf("want bonus 2, got %d", s.CapacityBonus)
	}

	// -2 + 2 = 0 trims to one link, -2 + 1 trims to none.
	s.SetBaseBonus(-2)
	if links := linksOf(t, s, emp.ID); len(links) != 0 {
		t.Fatalf("want empowerer emptied, got %v", links)
	}
	if s.CapacityBonus != -2 {
		t.Fatalf("want settled bonus -2, got %d", s.CapacityBonus)
	}
}

func TestConnectRejectedAtCapacity(t *testing.T) {
	s := newTestSim(t)
	d := mustCraft(t, s, board.TypeDowsing)
	s.Ledger.Grant(economy.ResourceStone, decimal.NewFromInt(1))
	s.Ledger.Grant(economy.ResourceDirt, decimal.NewFromInt(1))
	r1 := s.Board.Add(board.ResourceState{Kind: economy.ResourceStone}, board.Position{})
	r2 := s.Board.Add(board.ResourceState{Kind: economy.ResourceDirt}, board.Position{})

	if out, _ := s.Connect(d.ID, r1.ID); out != board.OutcomeAdded {
		t.Fatalf("first link: %v", out)
	}
	if out, _ := s.Connect(d.ID, r2.ID); out != board.OutcomeRejected {
		t.Fatalf("over capacity: want rejected, got %v", out)
	}
	if out, _ := s.Connect(d.ID, r1.ID); out != board.OutcomeRemoved {
		t.Fatalf("toggle off: %v", out)
	}
}

func TestInvestRaisesBonus(t *testing.T) {
	st := DefaultSettings()
	st.Formula = economy.Geometric{Base: 4, Ratio: 1}
	s, err := NewSimulation(st)
	if err != nil {
		t.Fatal(err)
	}
	inv := mustCraft(t, s, board.TypeInvestments)
	s.Ledger.Grant(economy.ResourceStone, decimal.NewFromInt(10))

	if err := s.Invest(inv.ID, economy.ResourceStone, decimal.NewFromInt(8)); err != nil {
		t.Fatal(err)
	}
	if s.CapacityBonus != 2 {
		t.Fatalf("level 2 investment should give bonus 2, got %d", s.CapacityBonus)
	}
	if !s.Ledger.Amount(economy.ResourceStone).Equal(decimal.NewFromInt(2)) {
		t.Fatalf("ledger not debited: %s", s.Ledger.Amount(economy.ResourceStone))
	}

	err = s.Invest(inv.ID, economy.ResourceStone, decimal.NewFromInt(5))
	if !errors.Is(err, economy.ErrInsufficient) {
		t.Fatalf("want ErrInsufficient, got %v", err)
	}
	core, _ := s.Board.Core()
	if err := s.Invest(core.ID, economy.ResourceStone, decimal.NewFromInt(1)); !errors.Is(err, ErrNotInvestments) {
		t.Fatalf("want ErrNotInvestments, got %v", err)
	}
}

func TestPortalCreditsRegion(t *testing.T) {
	st := DefaultSettings()
	st.Weights = map[economy.ResourceKind]int{economy.ResourceIron: 1}
	s, err := NewSimulation(st)
	if err != nil {
		t.Fatal(err)
	}
	r, portal, _ := s.SpawnPortal(economy.ResourceIron)
	other, _, _ := s.SpawnPortal(economy.ResourceGold)

	s.Step(3, entropy.NewStream(1))
	if !r.Accumulated.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("iron region accumulated %s", r.Accumulated)
	}
	if !other.Accumulated.IsZero() {
		t.Fatalf("gold region should not be credited, got %s", other.Accumulated)
	}

	if err := s.SetPowered(portal.ID, false); err != nil {
		t.Fatal(err)
	}
	s.Step(3, entropy.NewStream(1))
	if !r.Accumulated.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("inactive portal was credited: %s", r.Accumulated)
	}
}

func TestSpawnPortalSeedsReproducible(t *testing.T) {
	a, b := newTestSim(t), newTestSim(t)
	ra, _, _ := a.SpawnPortal(economy.ResourceRuby)
	rb, _, _ := b.SpawnPortal(economy.ResourceRuby)
	if ra.SourceSeed != rb.SourceSeed || ra.DisplayName != rb.DisplayName {
		t.Fatalf("same world seed gave different planes: %+v vs %+v", ra, rb)
	}
	if err := ra.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestCommandQueueOrder(t *testing.T) {
	s := newTestSim(t)
	cmds := []Command{
		{Type: CommandCraft, Machine: "trash"},
		{Type: CommandCraft, Machine: "tool", Tool: "drill"},
		{Type: CommandCraft, Machine: "quarry"},
		{Type: CommandConnect, Node: 4, Target: 3},
	}
	for _, c := range cmds {
		if err := s.Enqueue(c); err != nil {
			t.Fatalf("enqueue %+v: %v", c, err)
		}
	}
	if s.Pending() != len(cmds) {
		t.Fatalf("want %d pending, got %d", len(cmds), s.Pending())
	}
	if s.Board.Len() != 1 {
		t.Fatal("commands applied before the step")
	}

	rep := s.Step(1, entropy.NewStream(1))
	if s.Pending() != 0 {
		t.Fatal("queue not drained")
	}
	wantTags := []board.TypeTag{board.TypeCore, board.TypeTrash, board.TypeTool, board.TypeQuarry}
	nodes := s.Board.Nodes()
	for i, tag := range wantTags {
		if nodes[i].Tag() != tag {
			t.Fatalf("node %d: want %s, got %s", i, tag, nodes[i].Tag())
		}
	}
	if rep.Speed != 2 {
		t.Fatalf("queued connect should apply before production, speed %d", rep.Speed)
	}
}

func TestCommandValidation(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"unknown type", Command{Type: "dance"}, ErrUnknownCommand},
		{"connect without target", Command{Type: CommandConnect, Node: 2}, ErrBadCommand},
		{"craft unknown machine", Command{Type: CommandCraft, Machine: "forge"}, ErrBadCommand},
		{"craft unknown tool", Command{Type: CommandCraft, Machine: "tool", Tool: "spoon"}, ErrBadCommand},
		{"portal unknown tier", Command{Type: CommandSpawnPortal, Resource: "mithril"}, ErrBadCommand},
		{"invest bad amount", Command{Type: CommandInvest, Node: 2, Resource: "stone", Amount: "lots"}, ErrBadCommand},
		{"deselect", Command{Type: CommandDeselect}, nil},
		{"portal", Command{Type: CommandSpawnPortal, Resource: "gold"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCommandQueueLimit(t *testing.T) {
	s := newTestSim(t)
	for i := 0; i < CommandQueueLimit; i++ {
		if err := s.Enqueue(Command{Type: CommandDeselect}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Enqueue(Command{Type: CommandDeselect}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("want ErrQueueFull, got %v", err)
	}
}

func TestFailedCommandDoesNotBlockOthers(t *testing.T) {
	s := newTestSim(t)
	_ = s.Enqueue(Command{Type: CommandSelect, Node: 99})
	_ = s.Enqueue(Command{Type: CommandCraft, Machine: "booster"})
	s.Step(0, entropy.NewStream(1))
	if s.Board.Len() != 2 {
		t.Fatalf("booster should still be crafted, have %d nodes", s.Board.Len())
	}
}

func TestRunnerReports(t *testing.T) {
	r := NewRunner(newTestSim(t), entropy.NewStream(5))
	var got []StepReport
	r.OnReport = func(rep StepReport) { got = append(got, rep) }

	r.Step(1)
	r.Step(1)
	if len(got) != 2 || got[1].Tick != 2 {
		t.Fatalf("unexpected reports %+v", got)
	}
	r.View(func(s *Simulation) {
		if s.LastTick != 2 {
			t.Fatalf("tick %d", s.LastTick)
		}
	})
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	e := NewEngine(time.Millisecond)
	e.SaveEvery = 2

	ctx, cancel := context.WithCancel(context.Background())
	var steps, saves atomic.Int32
	e.OnStep = func(dt float64) {
		if dt != time.Millisecond.Seconds() {
			t.Errorf("dt %v", dt)
		}
		if steps.Add(1) == 4 {
			cancel()
		}
	}
	e.OnSave = func() { saves.Add(1) }

	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	if steps.Load() < 4 {
		t.Fatalf("want at least 4 steps, got %d", steps.Load())
	}
	// two periodic saves plus the shutdown save
	if saves.Load() < 3 {
		t.Fatalf("want at least 3 saves, got %d", saves.Load())
	}
}

func TestEngineSpeedClamp(t *testing.T) {
	e := NewEngine(0)
	if e.Interval != time.Second {
		t.Fatalf("default interval %v", e.Interval)
	}
	e.SetSpeed(-3)
	if e.Speed() != 0 {
		t.Fatalf("negative speed should pause, got %v", e.Speed())
	}
}
