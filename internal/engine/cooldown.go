package engine

import (
	"maps"

	"github.com/talgya/planeforge/internal/economy"
)

// Cooldowns flags recently granted kinds. A kind is present only while its
// countdown is positive.
type Cooldowns map[economy.ResourceKind]float64

// Sweep decrements every countdown by dt, then prunes the expired ones.
func (c Cooldowns) Sweep(dt float64) {
	for k, v := range c {
		c[k] = v - dt
	}
	maps.DeleteFunc(c, func(_ economy.ResourceKind, v float64) bool {
		return v <= 0
	})
}

// Arm (re)starts the countdown for k.
func (c Cooldowns) Arm(k economy.ResourceKind, d float64) {
	if d <= 0 {
		return
	}
	c[k] = d
}

// Active reports whether k is cooling down.
func (c Cooldowns) Active(k economy.ResourceKind) bool {
	_, ok := c[k]
	return ok
}

// Remaining returns the seconds left for k, or 0.
func (c Cooldowns) Remaining(k economy.ResourceKind) float64 {
	return c[k]
}
