// Package trim sells each holding's value above a fixed base back down to
// the base. It only ever sells; holdings under the base are left alone.
package trim

import (
	"github.com/shopspring/decimal"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

// Status is the terminal outcome for one holding in a run.
type Status string

const (
	StatusUnderBase     Status = "under_base"
	StatusBelowStep     Status = "below_step"
	StatusBelowMinQty   Status = "below_min_qty"
	StatusLotRuleFailed Status = "lot_rule_failed"
	StatusDryRun        Status = "dry_run"
	StatusSold          Status = "sold"
	StatusSellFailed    Status = "sell_failed"

	// StatusPlanned is what Plan returns for a sellable quantity; Run
	// replaces it with the outcome of the order.
	StatusPlanned Status = "planned"
)

// Decision records how a holding was sized and what happened to it.
type Decision struct {
	Holding     domain.Holding
	Base        decimal.Decimal
	Excess      decimal.Decimal
	RawQuantity decimal.Decimal
	Quantity    decimal.Decimal
	Rule        domain.LotRule
	Status      Status
	Order       *domain.OrderResult
	Err         error
}

// Excess is value - base. Non-positive means nothing to trim.
func Excess(h domain.Holding, base decimal.Decimal) decimal.Decimal {
	return h.Value().Sub(base)
}

// Plan sizes the sell for h. The quantity is the excess converted to units
// and rounded down to a whole number of lot steps, so it never sells more
// than the excess.
func Plan(h domain.Holding, base decimal.Decimal, rule domain.LotRule) Decision {
	d := Decision{
		Holding: h,
		Base:    base,
		Excess:  Excess(h, base),
		Rule:    rule,
	}
	if !d.Excess.IsPositive() || !h.Price.IsPositive() {
		d.Status = StatusUnderBase
		return d
	}

	d.RawQuantity = d.Excess.Div(h.Price)
	d.Quantity = rule.Quantize(d.RawQuantity)

	switch {
	case !d.Quantity.IsPositive():
		d.Quantity = decimal.Zero
		d.Status = StatusBelowStep
	case d.Quantity.LessThan(rule.MinQty):
		d.Status = StatusBelowMinQty
	default:
		d.Status = StatusPlanned
	}
	return d
}

// Notable reports whether the outcome goes to the operator channel.
func (d Decision) Notable() bool {
	switch d.Status {
	case StatusSold, StatusSellFailed, StatusLotRuleFailed, StatusDryRun:
		return true
	}
	return false
}
