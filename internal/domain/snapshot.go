package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the valued portfolio for one evaluation cycle.
// It is built fresh every run and never persisted.
type Snapshot struct {
	Holdings []Holding
	TakenAt  time.Time
}

// NewSnapshot copies holdings so later mutation of the slice by the caller
// does not leak into the snapshot.
func NewSnapshot(holdings []Holding, takenAt time.Time) Snapshot {
	hs := make([]Holding, len(holdings))
	copy(hs, holdings)
	return Snapshot{Holdings: hs, TakenAt: takenAt}
}

// TotalValue sums holding values.
func (s Snapshot) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range s.Holdings {
		total = total.Add(h.Value())
	}
	return total
}
