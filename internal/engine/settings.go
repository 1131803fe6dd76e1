package engine

import (
	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/economy"
)

// Settings are the tuning values a simulation is built from.
type Settings struct {
	Seed              uint32 // world seed; portal seeds are drawn from it
	Weights           map[economy.ResourceKind]int
	Capacities        map[board.TypeTag]int // base capacity overrides per machine type
	CooldownSeconds   float64
	NodeSize          float64
	BaseCapacityBonus int // external modifier, may be negative
	Formula           economy.Formula
}

// DefaultSettings returns the stock balance.
func DefaultSettings() Settings {
	return Settings{
		Seed:            42,
		Weights:         economy.DefaultWeights(),
		CooldownSeconds: 0.6,
		NodeSize:        1,
		Formula:         economy.Geometric{Base: 50, Ratio: 1.6},
	}
}
