// Weighted production: turns elapsed time into resource grants.
// Whole cycles over the weight table are paid out exactly; only the leftover
// completions are drawn at random.
package engine

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/talgya/planeforge/internal/economy"
	"github.com/talgya/planeforge/internal/entropy"
)

// Grants is the per-kind unit count paid out by one tick.
type Grants map[economy.ResourceKind]int64

// Total sums all units.
func (g Grants) Total() int64 {
	var n int64
	for _, v := range g {
		n += v
	}
	return n
}

// Kinds returns the granted kinds in enum order.
func (g Grants) Kinds() []economy.ResourceKind {
	return slices.Sorted(maps.Keys(g))
}

// Producer is the production accumulator for the core node.
type Producer struct {
	Weights          *economy.WeightTable
	Progress         float64 // fractional completion carried between ticks, in [0, 1)
	Cooldowns        Cooldowns
	CooldownDuration float64 // seconds a kind stays flagged after a grant
}

// NewProducer creates a producer with no progress.
func NewProducer(w *economy.WeightTable, cooldown float64) *Producer {
	return &Producer{
		Weights:          w,
		Cooldowns:        make(Cooldowns),
		CooldownDuration: cooldown,
	}
}

// Tick advances production by dt seconds and returns what was granted.
// dt must be finite and non-negative; anything else is a caller bug.
func (p *Producer) Tick(dt float64, src entropy.Source) Grants {
	checkDT(dt)

	// Expired cooldowns clear before this tick's grants re-arm them.
	p.Cooldowns.Sweep(dt)

	progress := p.Progress + dt
	completions := math.Floor(progress)
	p.Progress = progress - completions

	grants := p.distribute(int64(completions), src)
	for k := range grants {
		p.Cooldowns.Arm(k, p.CooldownDuration)
	}
	return grants
}

// Idle lets cooldowns run down while production is gated off.
func (p *Producer) Idle(dt float64) {
	checkDT(dt)
	p.Cooldowns.Sweep(dt)
}

// distribute pays whole cycles deterministically, then draws each leftover
// completion independently against the cumulative table.
func (p *Producer) distribute(completions int64, src entropy.Source) Grants {
	grants := make(Grants)
	if completions <= 0 {
		return grants
	}

	sum := p.Weights.Sum()
	whole := completions / sum
	if whole > 0 {
		for i := 0; i < p.Weights.Len(); i++ {
			grants[p.Weights.Kind(i)] += p.Weights.Weight(i) * whole
		}
	}

	remainder := completions - whole*sum
	for i := int64(0); i < remainder; i++ {
		draw := int64(src.Float() * float64(sum))
		if draw >= sum {
			draw = sum - 1
		}
		k, err := p.Weights.Resolve(draw)
		if err != nil {
			panic(err) // draw is clamped to [0, sum)
		}
		grants[k]++
	}
	return grants
}

func checkDT(dt float64) {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		panic(fmt.Sprintf("engine: production tick with invalid dt %v", dt))
	}
}
