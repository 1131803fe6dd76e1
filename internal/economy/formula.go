package economy

import (
	"math"

	"github.com/shopspring/decimal"
)

// Formula is the cost curve collaborator. Evaluate gives the cost of the
// given level; InvertIntegral gives the (fractional) level reachable after
// spending total in sum over all levels below it. Both are monotonic.
type Formula interface {
	Evaluate(level decimal.Decimal) decimal.Decimal
	InvertIntegral(total decimal.Decimal) decimal.Decimal
}

// Geometric costs Base*Ratio^level per level.
type Geometric struct {
	Base  float64 `yaml:"base"`
	Ratio float64 `yaml:"ratio"`
}

// Evaluate implements Formula.
func (g Geometric) Evaluate(level decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(g.Base * math.Pow(g.Ratio, level.InexactFloat64()))
}

// InvertIntegral implements Formula. The cumulative cost of n levels is
// Base*(Ratio^n-1)/(Ratio-1); this solves it for n.
func (g Geometric) InvertIntegral(total decimal.Decimal) decimal.Decimal {
	t := total.InexactFloat64()
	if t <= 0 || g.Base <= 0 {
		return decimal.Zero
	}
	if g.Ratio == 1 {
		return decimal.NewFromFloat(t / g.Base)
	}
	n := math.Log(t*(g.Ratio-1)/g.Base+1) / math.Log(g.Ratio)
	return decimal.NewFromFloat(n)
}

// LevelProgress returns the whole level reached after spending spent and the
// fraction of the way to the next level.
func LevelProgress(f Formula, spent decimal.Decimal) (int64, float64) {
	reach := f.InvertIntegral(spent)
	if reach.IsNegative() {
		return 0, 0
	}
	level := reach.Floor()
	frac := reach.Sub(level).InexactFloat64()
	return level.IntPart(), frac
}
