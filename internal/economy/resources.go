// Package economy provides the resource kinds, their lottery weights, the
// decimal resource ledger and the cost-formula collaborator.
package economy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/planeforge/internal/procgen"
)

// ResourceKind enumerates the sixteen producible resources.
type ResourceKind uint8

const (
	ResourceStone ResourceKind = iota // Commonest drop
	ResourceDirt
	ResourceWood
	ResourceSand
	ResourceClay
	ResourceCoal
	ResourceCopper
	ResourceIron
	ResourceQuartz
	ResourceSilver
	ResourceGold
	ResourceRuby
	ResourceSapphire
	ResourceEmerald
	ResourceDiamond
	ResourceAether // Rarest drop

	ResourceKindCount = 16
)

type kindInfo struct {
	name   string
	weight int
	color  procgen.RGB
}

var kinds = [ResourceKindCount]kindInfo{
	ResourceStone:    {"stone", 120, procgen.RGB{R: 0.55, G: 0.55, B: 0.58}},
	ResourceDirt:     {"dirt", 100, procgen.RGB{R: 0.45, G: 0.32, B: 0.2}},
	ResourceWood:     {"wood", 80, procgen.RGB{R: 0.6, G: 0.42, B: 0.22}},
	ResourceSand:     {"sand", 64, procgen.RGB{R: 0.9, G: 0.82, B: 0.55}},
	ResourceClay:     {"clay", 50, procgen.RGB{R: 0.75, G: 0.45, B: 0.35}},
	ResourceCoal:     {"coal", 40, procgen.RGB{R: 0.2, G: 0.2, B: 0.22}},
	ResourceCopper:   {"copper", 32, procgen.RGB{R: 0.8, G: 0.5, B: 0.25}},
	ResourceIron:     {"iron", 25, procgen.RGB{R: 0.65, G: 0.6, B: 0.58}},
	ResourceQuartz:   {"quartz", 20, procgen.RGB{R: 0.92, G: 0.9, B: 0.95}},
	ResourceSilver:   {"silver", 16, procgen.RGB{R: 0.78, G: 0.8, B: 0.85}},
	ResourceGold:     {"gold", 12, procgen.RGB{R: 0.95, G: 0.78, B: 0.2}},
	ResourceRuby:     {"ruby", 9, procgen.RGB{R: 0.85, G: 0.1, B: 0.25}},
	ResourceSapphire: {"sapphire", 6, procgen.RGB{R: 0.15, G: 0.3, B: 0.85}},
	ResourceEmerald:  {"emerald", 4, procgen.RGB{R: 0.1, G: 0.75, B: 0.4}},
	ResourceDiamond:  {"diamond", 2, procgen.RGB{R: 0.7, G: 0.95, B: 0.98}},
	ResourceAether:   {"aether", 1, procgen.RGB{R: 0.6, G: 0.3, B: 0.9}},
}

// Valid reports whether k is one of the sixteen kinds.
func (k ResourceKind) Valid() bool {
	return k < ResourceKindCount
}

// String returns the lowercase name of the kind.
func (k ResourceKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("resource(%d)", uint8(k))
	}
	return kinds[k].name
}

// BaseColor is the hue a plane of this tier is colored against.
func (k ResourceKind) BaseColor() procgen.RGB {
	if !k.Valid() {
		return procgen.RGB{}
	}
	return kinds[k].color
}

// AllKinds returns every kind in weight-table order.
func AllKinds() []ResourceKind {
	out := make([]ResourceKind, ResourceKindCount)
	for i := range out {
		out[i] = ResourceKind(i)
	}
	return out
}

// ResourceKindFromString parses a kind name, case-insensitively.
func ResourceKindFromString(s string) (ResourceKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, info := range kinds {
		if info.name == s {
			return ResourceKind(i), true
		}
	}
	return 0, false
}

// DefaultWeights returns the stock lottery weight of every kind.
func DefaultWeights() map[ResourceKind]int {
	out := make(map[ResourceKind]int, ResourceKindCount)
	for i, info := range kinds {
		out[ResourceKind(i)] = info.weight
	}
	return out
}

var (
	ErrEmptyWeights   = errors.New("weight table is empty")
	ErrInvalidWeight  = errors.New("weight must be positive")
	ErrUnknownKind    = errors.New("unknown resource kind")
	ErrDrawOutOfRange = errors.New("draw outside weight table")
)

// WeightTable is an ordered, immutable lottery over resource kinds.
type WeightTable struct {
	kinds      []ResourceKind
	weights    []int64
	cumulative []int64
	sum        int64
}

// NewWeightTable builds a table from per-kind weights. Kinds are ordered by
// their enum value so the cumulative layout is stable.
func NewWeightTable(weights map[ResourceKind]int) (*WeightTable, error) {
	if len(weights) == 0 {
		return nil, ErrEmptyWeights
	}

	t := &WeightTable{}
	for _, k := range AllKinds() {
		w, ok := weights[k]
		if !ok {
			continue
		}
		if w <= 0 {
			return nil, fmt.Errorf("%s: %w", k, ErrInvalidWeight)
		}
		t.sum += int64(w)
		t.kinds = append(t.kinds, k)
		t.weights = append(t.weights, int64(w))
		t.cumulative = append(t.cumulative, t.sum)
	}
	for k := range weights {
		if !k.Valid() {
			return nil, fmt.Errorf("%d: %w", uint8(k), ErrUnknownKind)
		}
	}
	return t, nil
}

// MustWeightTable is NewWeightTable that panics on a bad table.
func MustWeightTable(weights map[ResourceKind]int) *WeightTable {
	t, err := NewWeightTable(weights)
	if err != nil {
		panic(err)
	}
	return t
}

// Sum is the total weight of one whole cycle.
func (t *WeightTable) Sum() int64 {
	return t.sum
}

// Len is the number of kinds in the table.
func (t *WeightTable) Len() int {
	return len(t.kinds)
}

// Kind returns the i-th kind in table order.
func (t *WeightTable) Kind(i int) ResourceKind {
	return t.kinds[i]
}

// Weight returns the i-th weight in table order.
func (t *WeightTable) Weight(i int) int64 {
	return t.weights[i]
}

// WeightOf returns the weight of k, or 0 if k is not in the table.
func (t *WeightTable) WeightOf(k ResourceKind) int64 {
	for i, kk := range t.kinds {
		if kk == k {
			return t.weights[i]
		}
	}
	return 0
}

// Resolve maps a draw in [0, Sum) to the first kind whose cumulative weight
// exceeds it, so each kind owns exactly weight-many draw values.
func (t *WeightTable) Resolve(draw int64) (ResourceKind, error) {
	if draw < 0 || draw >= t.sum {
		return 0, fmt.Errorf("draw %d of %d: %w", draw, t.sum, ErrDrawOutOfRange)
	}
	lo, hi := 0, len(t.cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if t.cumulative[mid] > draw {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return t.kinds[lo], nil
}
