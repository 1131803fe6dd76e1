// Package world holds the planes reachable through portals. A plane's
// visible content is derived entirely from its seed.
package world

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/talgya/planeforge/internal/economy"
	"github.com/talgya/planeforge/internal/entropy"
	"github.com/talgya/planeforge/internal/procgen"
)

// backgroundShade darkens the tier color to get the background base.
const backgroundShade = 0.35

// Region is a plane. SourceSeed is immutable and reproduces every derived
// field; Accumulated is the only field that changes after creation.
type Region struct {
	ID              string               `json:"id"`
	SourceSeed      uint32               `json:"source_seed"`
	Tier            economy.ResourceKind `json:"tier"`
	DisplayName     string               `json:"display_name"`
	PowerName       string               `json:"power_name"`
	PrimaryColor    procgen.Color        `json:"primary_color"`
	BackgroundColor procgen.Color        `json:"background_color"`
	Accumulated     decimal.Decimal      `json:"accumulated"`
}

// Content is the seed-derived part of a region.
type Content struct {
	DisplayName     string
	PowerName       string
	PrimaryColor    procgen.Color
	BackgroundColor procgen.Color
}

// Generate derives a region's content from its seed and tier. Draw order:
// name, primary color, background color, power name.
func Generate(seed uint32, tier economy.ResourceKind) Content {
	stream := entropy.NewStream(seed)
	base := tier.BaseColor()

	var c Content
	c.DisplayName = procgen.RegionName(stream)
	c.PrimaryColor = procgen.GenerateColor(base, stream)
	c.BackgroundColor = procgen.GenerateColor(base.Scale(backgroundShade), stream)
	c.PowerName = procgen.PowerName(stream)
	return c
}

// NewRegion creates a region with a fresh id.
func NewRegion(seed uint32, tier economy.ResourceKind) *Region {
	return build(uuid.NewString(), seed, tier, decimal.Zero)
}

func build(id string, seed uint32, tier economy.ResourceKind, accumulated decimal.Decimal) *Region {
	c := Generate(seed, tier)
	return &Region{
		ID:              id,
		SourceSeed:      seed,
		Tier:            tier,
		DisplayName:     c.DisplayName,
		PowerName:       c.PowerName,
		PrimaryColor:    c.PrimaryColor,
		BackgroundColor: c.BackgroundColor,
		Accumulated:     accumulated,
	}
}

// RestoreRegion rebuilds a saved region, re-deriving its content from seed.
func RestoreRegion(id string, seed uint32, tier economy.ResourceKind, accumulated decimal.Decimal) *Region {
	return build(id, seed, tier, accumulated)
}

// Content returns the region's stored seed-derived fields.
func (r *Region) Content() Content {
	return Content{
		DisplayName:     r.DisplayName,
		PowerName:       r.PowerName,
		PrimaryColor:    r.PrimaryColor,
		BackgroundColor: r.BackgroundColor,
	}
}

// Verify regenerates the region from its seed and reports a mismatch with
// the stored content, which means the save was edited or the generator
// changed underneath it.
func (r *Region) Verify() error {
	if got := Generate(r.SourceSeed, r.Tier); got != r.Content() {
		return fmt.Errorf("region %s: stored content %+v does not match seed %d (%+v)",
			r.ID, r.Content(), r.SourceSeed, got)
	}
	return nil
}

// Atlas is the ordered set of live regions.
type Atlas struct {
	order []string
	byID  map[string]*Region
}

// NewAtlas creates an empty atlas.
func NewAtlas() *Atlas {
	return &Atlas{byID: make(map[string]*Region)}
}

// Add stores a region.
func (a *Atlas) Add(r *Region) {
	if _, ok := a.byID[r.ID]; !ok {
		a.order = append(a.order, r.ID)
	}
	a.byID[r.ID] = r
}

// Get looks a region up by id.
func (a *Atlas) Get(id string) (*Region, bool) {
	r, ok := a.byID[id]
	return r, ok
}

// Remove deletes a region and reports whether it existed.
func (a *Atlas) Remove(id string) bool {
	if _, ok := a.byID[id]; !ok {
		return false
	}
	delete(a.byID, id)
	a.order = slices.DeleteFunc(slices.Clone(a.order), func(s string) bool { return s == id })
	return true
}

// List returns regions in creation order.
func (a *Atlas) List() []*Region {
	out := make([]*Region, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}

// Len is the number of regions.
func (a *Atlas) Len() int {
	return len(a.order)
}
