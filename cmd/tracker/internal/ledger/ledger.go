// Package ledger owns the authoritative in-memory set of open positions.
// It is volatile by design: one instance per process, no persistence.
package ledger

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Stephc02/FinancialTrackingSystem/pkg/models"
)

// Ledger keeps positions in insertion order with a symbol index for updates.
// Callers never reach the underlying storage; all access goes through the
// methods below, which enforce the read/update atomicity contract.
type Ledger struct {
	mu        sync.RWMutex
	positions []*models.Position
	bySymbol  map[string][]*models.Position
}

func New() *Ledger {
	return &Ledger{
		bySymbol: make(map[string][]*models.Position),
	}
}

// Insert adds a position. Duplicate instrument IDs are accepted as-is; input
// sourced from a single load pass is expected to avoid them.
func (l *Ledger) Insert(p models.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored := &p
	l.positions = append(l.positions, stored)
	l.bySymbol[p.Symbol] = append(l.bySymbol[p.Symbol], stored)
}

// Snapshot returns a read-consistent copy of all positions in insertion order.
// Safe to call while updates are in flight; each position is copied whole, so
// a caller never sees a half-written rate.
func (l *Ledger) Snapshot() []models.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Position, len(l.positions))
	for i, p := range l.positions {
		out[i] = *p
	}
	return out
}

// Len reports the number of positions held.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// ApplyRateUpdate sets CurrentRate on every position whose symbol matches
// exactly (no case normalization) and returns how many were touched.
// Zero matches is a no-op, not an error: updates are not required to
// correspond to held positions. Concurrent same-symbol updates serialize on
// the lock; last writer wins.
func (l *Ledger) ApplyRateUpdate(symbol string, newRate decimal.Decimal) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	matched := l.bySymbol[symbol]
	for _, p := range matched {
		p.CurrentRate = newRate
	}
	return len(matched)
}
