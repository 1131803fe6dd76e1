package economy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// ErrInsufficient is returned when a spend exceeds the ledger balance.
var ErrInsufficient = errors.New("insufficient resources")

// Ledger maps resource kinds to accumulated amounts. A kind has no entry
// until it is first granted.
type Ledger struct {
	amounts map[ResourceKind]decimal.Decimal
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{amounts: make(map[ResourceKind]decimal.Decimal)}
}

// Has reports whether k has ever been granted.
func (l *Ledger) Has(k ResourceKind) bool {
	_, ok := l.amounts[k]
	return ok
}

// Amount returns the balance of k (zero when absent).
func (l *Ledger) Amount(k ResourceKind) decimal.Decimal {
	return l.amounts[k]
}

// Grant adds n to k, creating the entry on first grant. It reports whether
// the entry was newly created.
func (l *Ledger) Grant(k ResourceKind, n decimal.Decimal) bool {
	cur, ok := l.amounts[k]
	l.amounts[k] = cur.Add(n)
	return !ok
}

// Set overwrites the balance of k. Used when restoring saves.
func (l *Ledger) Set(k ResourceKind, n decimal.Decimal) {
	l.amounts[k] = n
}

// Spend subtracts n from k. The ledger is unchanged on error.
func (l *Ledger) Spend(k ResourceKind, n decimal.Decimal) error {
	if n.IsNegative() {
		return fmt.Errorf("spend %s %s: negative amount", n, k)
	}
	cur := l.amounts[k]
	if cur.LessThan(n) {
		return fmt.Errorf("spend %s %s (have %s): %w", n, k, cur, ErrInsufficient)
	}
	l.amounts[k] = cur.Sub(n)
	return nil
}

// Kinds returns the kinds with entries, in enum order.
func (l *Ledger) Kinds() []ResourceKind {
	out := make([]ResourceKind, 0, len(l.amounts))
	for k := range l.amounts {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Snapshot copies the ledger keyed by kind name.
func (l *Ledger) Snapshot() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.amounts))
	for k, v := range l.amounts {
		out[k.String()] = v
	}
	return out
}

// Total sums every balance.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range l.amounts {
		total = total.Add(v)
	}
	return total
}
