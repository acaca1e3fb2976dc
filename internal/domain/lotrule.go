package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// LotRule is the quantity granularity an exchange accepts for a pair.
type LotRule struct {
	Pair     Pair
	StepSize decimal.Decimal
	MinQty   decimal.Decimal
}

// Validate reports whether the rule can be used for quantization.
func (r LotRule) Validate() error {
	if !r.StepSize.IsPositive() {
		return errors.Wrapf(ErrNoUsablePrecision, "step size %s for %s", r.StepSize.String(), r.Pair.String())
	}
	if r.MinQty.IsNegative() {
		return errors.Errorf("negative min quantity %s for %s", r.MinQty.String(), r.Pair.String())
	}
	return nil
}

// Quantize rounds qty down to a whole number of steps.
// The result is never above qty and never negative.
func (r LotRule) Quantize(qty decimal.Decimal) decimal.Decimal {
	if !qty.IsPositive() || !r.StepSize.IsPositive() {
		return decimal.Zero
	}
	steps := qty.Div(r.StepSize).Floor()
	out := steps.Mul(r.StepSize)
	// Div is rounded to DivisionPrecision; step back once if that pushed us over.
	if out.GreaterThan(qty) {
		out = out.Sub(r.StepSize)
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}
