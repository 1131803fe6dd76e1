package economy

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultWeightsCoverAllKinds(t *testing.T) {
	table := MustWeightTable(DefaultWeights())
	if table.Len() != ResourceKindCount {
		t.Fatalf("expected %d kinds, got %d", ResourceKindCount, table.Len())
	}
	if table.Sum() != 581 {
		t.Fatalf("expected default weight sum 581, got %d", table.Sum())
	}
	for i := 0; i < table.Len(); i++ {
		if table.Kind(i) != ResourceKind(i) {
			t.Fatalf("table position %d holds %s", i, table.Kind(i))
		}
	}
}

func TestResolveGivesEachKindItsWeight(t *testing.T) {
	table := MustWeightTable(map[ResourceKind]int{
		ResourceStone: 3,
		ResourceWood:  1,
		ResourceGold:  2,
	})

	counts := make(map[ResourceKind]int)
	for d := int64(0); d < table.Sum(); d++ {
		k, err := table.Resolve(d)
		if err != nil {
			t.Fatalf("resolve %d: %v", d, err)
		}
		counts[k]++
	}
	want := map[ResourceKind]int{ResourceStone: 3, ResourceWood: 1, ResourceGold: 2}
	for k, w := range want {
		if counts[k] != w {
			t.Fatalf("%s: expected %d draw values, got %d", k, w, counts[k])
		}
	}

	first, _ := table.Resolve(0)
	last, _ := table.Resolve(table.Sum() - 1)
	if first != ResourceStone || last != ResourceGold {
		t.Fatalf("unexpected boundary kinds %s / %s", first, last)
	}

	for _, d := range []int64{-1, table.Sum()} {
		if _, err := table.Resolve(d); !errors.Is(err, ErrDrawOutOfRange) {
			t.Fatalf("draw %d: expected ErrDrawOutOfRange, got %v", d, err)
		}
	}
}

func TestNewWeightTableRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		weights map[ResourceKind]int
		want    error
	}{
		{name: "empty", weights: map[ResourceKind]int{}, want: ErrEmptyWeights},
		{name: "zero weight", weights: map[ResourceKind]int{ResourceDirt: 0}, want: ErrInvalidWeight},
		{name: "negative weight", weights: map[ResourceKind]int{ResourceDirt: -2}, want: ErrInvalidWeight},
		{name: "unknown kind", weights: map[ResourceKind]int{ResourceKind(40): 1}, want: ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWeightTable(tt.weights); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestResourceKindNames(t *testing.T) {
	for _, k := range AllKinds() {
		parsed, ok := ResourceKindFromString(k.String())
		if !ok || parsed != k {
			t.Fatalf("name round trip failed for %s", k)
		}
	}
	if _, ok := ResourceKindFromString("unobtainium"); ok {
		t.Fatal("expected unknown name to fail")
	}
	if k, ok := ResourceKindFromString(" Gold "); !ok || k != ResourceGold {
		t.Fatalf("expected case-insensitive parse, got %v %v", k, ok)
	}
}

func TestLedgerLazyEntries(t *testing.T) {
	l := NewLedger()
	if l.Has(ResourceIron) {
		t.Fatal("fresh ledger should have no entries")
	}
	if created := l.Grant(ResourceIron, decimal.NewFromInt(3)); !created {
		t.Fatal("first grant should create the entry")
	}
	if created := l.Grant(ResourceIron, decimal.NewFromInt(4)); created {
		t.Fatal("second grant should not report creation")
	}
	if !l.Amount(ResourceIron).Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected 7 iron, got %s", l.Amount(ResourceIron))
	}
	l.Grant(ResourceStone, decimal.NewFromInt(1))
	kinds := l.Kinds()
	if len(kinds) != 2 || kinds[0] != ResourceStone || kinds[1] != ResourceIron {
		t.Fatalf("unexpected kinds %v", kinds)
	}
	if !l.Total().Equal(decimal.NewFromInt(8)) {
		t.Fatalf("unexpected total %s", l.Total())
	}
}

func TestLedgerSpend(t *testing.T) {
	l := NewLedger()
	l.Grant(ResourceGold, decimal.NewFromInt(10))

	if err := l.Spend(ResourceGold, decimal.NewFromInt(11)); !errors.Is(err, ErrInsufficient) {
		t.Fatalf("expected ErrInsufficient, got %v", err)
	}
	if !l.Amount(ResourceGold).Equal(decimal.NewFromInt(10)) {
		t.Fatal("failed spend must not change the balance")
	}
	if err := l.Spend(ResourceGold, decimal.NewFromInt(-1)); err == nil {
		t.Fatal("expected negative spend to fail")
	}
	if err := l.Spend(ResourceGold, decimal.NewFromInt(4)); err != nil {
		t.Fatalf("spend: %v", err)
	}
	if !l.Amount(ResourceGold).Equal(decimal.NewFromInt(6)) {
		t.Fatalf("expected 6 gold, got %s", l.Amount(ResourceGold))
	}
}

func TestLedgerHandlesHugeAmounts(t *testing.T) {
	l := NewLedger()
	huge := decimal.New(1, 400)
	l.Grant(ResourceAether, huge)
	l.Grant(ResourceAether, huge)
	if !l.Amount(ResourceAether).Equal(decimal.New(2, 400)) {
		t.Fatalf("unexpected amount %s", l.Amount(ResourceAether))
	}
}

func TestGeometricLevelProgress(t *testing.T) {
	f := Geometric{Base: 10, Ratio: 2}

	tests := []struct {
		spent     int64
		wantLevel int64
		wantFrac  float64
	}{
		{spent: 0, wantLevel: 0, wantFrac: 0},
		{spent: 5, wantLevel: 0, wantFrac: math.Log2(1.5)},
		{spent: 20, wantLevel: 1, wantFrac: math.Log2(3) - 1},
		{spent: 100, wantLevel: 3, wantFrac: math.Log2(11) - 3},
	}
	for _, tt := range tests {
		level, frac := LevelProgress(f, decimal.NewFromInt(tt.spent))
		if level != tt.wantLevel || math.Abs(frac-tt.wantFrac) > 1e-9 {
			t.Fatalf("spent %d: expected level %d frac %.6f, got %d %.6f",
				tt.spent, tt.wantLevel, tt.wantFrac, level, frac)
		}
	}

	if cost := f.Evaluate(decimal.NewFromInt(3)); !cost.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected level 3 to cost 80, got %s", cost)
	}
}

func TestGeometricFlatRatio(t *testing.T) {
	f := Geometric{Base: 4, Ratio: 1}
	level, frac := LevelProgress(f, decimal.NewFromInt(10))
	if level != 2 || math.Abs(frac-0.5) > 1e-9 {
		t.Fatalf("expected level 2.5, got %d + %.3f", level, frac)
	}
}
