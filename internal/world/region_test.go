package world

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/talgya/planeforge/internal/economy"
)

func TestRegionReproducibleFromSeed(t *testing.T) {
	for seed := uint32(1); seed < 200; seed += 7 {
		tier := economy.ResourceKind(seed % economy.ResourceKindCount)
		a := NewRegion(seed, tier)
		b := NewRegion(seed, tier)

		if a.ID == b.ID {
			t.Fatalf("seed %d: regions share id %s", seed, a.ID)
		}
		if a.Content() != b.Content() {
			t.Fatalf("seed %d: content differs %+v vs %+v", seed, a.Content(), b.Content())
		}
		if err := a.Verify(); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
	}
}

func TestRestoreRegionKeepsSavedFields(t *testing.T) {
	orig := NewRegion(99, economy.ResourceRuby)
	got := RestoreRegion(orig.ID, 99, economy.ResourceRuby, decimal.NewFromInt(17))

	if got.ID != orig.ID || got.SourceSeed != 99 || got.Tier != economy.ResourceRuby {
		t.Fatalf("restored header %+v", got)
	}
	if !got.Accumulated.Equal(decimal.NewFromInt(17)) {
		t.Fatalf("accumulated %s", got.Accumulated)
	}
	if got.Content() != orig.Content() {
		t.Fatalf("content drifted: %+v vs %+v", got.Content(), orig.Content())
	}
	if err := got.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestRegionVerifyDetectsEdits(t *testing.T) {
	r := NewRegion(42, economy.ResourceGold)
	r.DisplayName = "Tampered"
	if err := r.Verify(); err == nil {
		t.Fatal("expected verify to flag an edited name")
	}
}

func TestTierChangesColorsNotName(t *testing.T) {
	a := Generate(9, economy.ResourceRuby)
	b := Generate(9, economy.ResourceSapphire)
	if a.DisplayName != b.DisplayName {
		t.Fatalf("name should depend only on the seed: %q vs %q", a.DisplayName, b.DisplayName)
	}
	if a.PrimaryColor == b.PrimaryColor {
		t.Fatalf("expected tier base color to change the primary color, both %+v", a.PrimaryColor)
	}
}

func TestAtlas(t *testing.T) {
	at := NewAtlas()
	r1 := NewRegion(1, economy.ResourceStone)
	r2 := NewRegion(2, economy.ResourceDirt)
	r3 := NewRegion(3, economy.ResourceWood)
	at.Add(r1)
	at.Add(r2)
	at.Add(r3)

	if !at.Remove(r2.ID) {
		t.Fatal("expected removal")
	}
	if at.Remove(r2.ID) {
		t.Fatal("second removal should report false")
	}
	list := at.List()
	if len(list) != 2 || list[0] != r1 || list[1] != r3 {
		t.Fatalf("unexpected order %v", list)
	}
	if _, ok := at.Get(r2.ID); ok {
		t.Fatal("removed region still reachable")
	}
}
