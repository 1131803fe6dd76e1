package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/planeforge/internal/board"
	"github.com/talgya/planeforge/internal/economy"
	"github.com/talgya/planeforge/internal/engine"
)

// Balance is the tuning file. Absent keys keep the compiled-in defaults.
type Balance struct {
	Weights           map[string]int     `yaml:"weights"`
	Capacities        map[string]int     `yaml:"capacities"`
	CooldownSeconds   *float64           `yaml:"cooldown_seconds"`
	NodeSize          *float64           `yaml:"node_size"`
	BaseCapacityBonus *int               `yaml:"base_capacity_bonus"`
	Formula           *economy.Geometric `yaml:"formula"`
}

// LoadBalance reads a balance file.
func LoadBalance(path string) (Balance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("read balance: %w", err)
	}
	return ParseBalance(data)
}

// ParseBalance decodes balance YAML. Unknown keys are errors.
func ParseBalance(data []byte) (Balance, error) {
	var b Balance
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
		return Balance{}, fmt.Errorf("parse balance: %w", err)
	}
	return b, nil
}

// Apply overlays the balance onto st.
func (b Balance) Apply(st engine.Settings) (engine.Settings, error) {
	if len(b.Weights) > 0 {
		weights := make(map[economy.ResourceKind]int, len(b.Weights))
		for name, w := range b.Weights {
			k, ok := economy.ResourceKindFromString(name)
			if !ok {
				return st, fmt.Errorf("weights %q: %w", name, economy.ErrUnknownKind)
			}
			weights[k] = w
		}
		if _, err := economy.NewWeightTable(weights); err != nil {
			return st, fmt.Errorf("weights: %w", err)
		}
		st.Weights = weights
	}
	if len(b.Capacities) > 0 {
		caps := make(map[board.TypeTag]int, len(b.Capacities))
		for name, c := range b.Capacities {
			tag, ok := board.TypeTagFromString(name)
			if !ok || !board.IsConnector(tag) {
				return st, fmt.Errorf("capacities %q: %w", name, board.ErrNotConnector)
			}
			caps[tag] = c
		}
		st.Capacities = caps
	}
	if b.CooldownSeconds != nil {
		if *b.CooldownSeconds < 0 {
			return st, fmt.Errorf("cooldown_seconds %v must not be negative", *b.CooldownSeconds)
		}
		st.CooldownSeconds = *b.CooldownSeconds
	}
	if b.NodeSize != nil {
		if *b.NodeSize <= 0 {
			return st, fmt.Errorf("node_size %v must be positive", *b.NodeSize)
		}
		st.NodeSize = *b.NodeSize
	}
	if b.BaseCapacityBonus != nil {
		st.BaseCapacityBonus = *b.BaseCapacityBonus
	}
	if b.Formula != nil {
		if b.Formula.Base <= 0 || b.Formula.Ratio < 1 {
			return st, fmt.Errorf("formula base %v ratio %v: base must be positive and ratio at least 1",
				b.Formula.Base, b.Formula.Ratio)
		}
		st.Formula = *b.Formula
	}
	return st, nil
}

// Settings builds simulation settings from the runtime config and the
// optional balance file.
func (c Config) Settings() (engine.Settings, error) {
	st := engine.DefaultSettings()
	st.Seed = c.Seed
	if c.BalancePath == "" {
		return st, nil
	}
	b, err := LoadBalance(c.BalancePath)
	if err != nil {
		return st, err
	}
	return b.Apply(st)
}
