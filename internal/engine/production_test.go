package engine

import (
	"math"
	"testing"

	"github.com/talgya/planeforge/internal/economy"
	"github.com/talgya/planeforge/internal/entropy"
)

func twoKindProducer() *Producer {
	w := economy.MustWeightTable(map[economy.ResourceKind]int{
		economy.ResourceStone: 1,
		economy.ResourceDirt:  1,
	})
	return NewProducer(w, 0.6)
}

func TestTickWorkedScenario(t *testing.T) {
	p := twoKindProducer()
	src := &entropy.Fixed{Values: []float64{0.1}}

	g := p.Tick(4, src)
	if g[economy.ResourceStone] != 2 || g[economy.ResourceDirt] != 2 {
		t.Fatalf("dt=4: want 2/2, got %v", g)
	}
	if src.Draws() != 0 {
		t.Fatalf("whole cycles should not draw, drew %d", src.Draws())
	}

	g = p.Tick(5, src)
	if g.Total() != 5 {
		t.Fatalf("dt=5: want 5 units, got %d (%v)", g.Total(), g)
	}
	if g[economy.ResourceStone] != 3 || g[economy.ResourceDirt] != 2 {
		t.Fatalf("dt=5: draw 0.1 should land on stone, got %v", g)
	}
	if p.Progress != 0 {
		t.Fatalf("progress should be 0, got %v", p.Progress)
	}
	if src.Draws() != 1 {
		t.Fatalf("one remainder completion should draw once, drew %d", src.Draws())
	}
}

func TestTickExactCycles(t *testing.T) {
	w := economy.MustWeightTable(economy.DefaultWeights())
	p := NewProducer(w, 0)
	src := &entropy.Fixed{Values: []float64{0.5}}

	const cycles = 3
	g := p.Tick(float64(w.Sum()*cycles), src)
	for i := 0; i < w.Len(); i++ {
		k := w.Kind(i)
		if g[k] != w.Weight(i)*cycles {
			t.Fatalf("%s: want %d, got %d", k, w.Weight(i)*cycles, g[k])
		}
	}
	if src.Draws() != 0 {
		t.Fatalf("exact cycles drew %d times", src.Draws())
	}
}

func TestTickConservesProgress(t *testing.T) {
	p := twoKindProducer()
	src := entropy.NewStream(7)

	var total int64
	for i := 0; i < 40; i++ {
		total += p.Tick(0.125, src).Total()
		if p.Progress < 0 || p.Progress >= 1 {
			t.Fatalf("progress out of range: %v", p.Progress)
		}
	}
	if total != 5 || p.Progress != 0 {
		t.Fatalf("40 x 0.125 should pay 5 with no carry, got %d carry %v", total, p.Progress)
	}
}

func TestTickZeroDT(t *testing.T) {
	p := twoKindProducer()
	if g := p.Tick(0, entropy.NewStream(1)); len(g) != 0 {
		t.Fatalf("dt=0 granted %v", g)
	}
}

func TestCooldownRearm(t *testing.T) {
	w := economy.MustWeightTable(map[economy.ResourceKind]int{economy.ResourceStone: 1})
	p := NewProducer(w, 0.6)
	src := entropy.NewStream(1)

	p.Tick(1, src)
	if !p.Cooldowns.Active(economy.ResourceStone) {
		t.Fatal("granted kind should be cooling down")
	}

	p.Tick(0.5, src)
	if r := p.Cooldowns.Remaining(economy.ResourceStone); math.Abs(r-0.1) > 1e-9 {
		t.Fatalf("want 0.1 remaining, got %v", r)
	}

	p.Tick(0.5, src)
	if r := p.Cooldowns.Remaining(economy.ResourceStone); r != 0.6 {
		t.Fatalf("expired timer should re-arm to 0.6, got %v", r)
	}
}

func TestCooldownSweepPrunes(t *testing.T) {
	c := Cooldowns{economy.ResourceStone: 0.2, economy.ResourceDirt: 1}
	c.Sweep(0.2)
	if c.Active(economy.ResourceStone) {
		t.Fatal("timer at zero should be pruned")
	}
	if !c.Active(economy.ResourceDirt) {
		t.Fatal("running timer was pruned")
	}
}

func TestIdleOnlyRunsCooldowns(t *testing.T) {
	p := twoKindProducer()
	p.Tick(1, entropy.NewStream(3))
	p.Idle(10)
	if len(p.Cooldowns) != 0 {
		t.Fatalf("cooldowns should expire while idle, got %v", p.Cooldowns)
	}
	if p.Progress != 0 {
		t.Fatalf("idle moved progress to %v", p.Progress)
	}
}

func TestTickRejectsBadDT(t *testing.T) {
	for _, dt := range []float64{-1, math.NaN(), math.Inf(1)} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("dt=%v did not panic", dt)
				}
			}()
			twoKindProducer().Tick(dt, entropy.NewStream(1))
		}()
	}
}
