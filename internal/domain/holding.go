package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Holding is one asset's quantity and valuation within a snapshot.
type Holding struct {
	Asset  string
	Pair   Pair
	Amount decimal.Decimal
	Price  decimal.Decimal
}

// NewHolding validates and builds a Holding.
func NewHolding(asset, quote string, amount, price decimal.Decimal) (Holding, error) {
	if amount.IsNegative() {
		return Holding{}, errors.Errorf("negative amount %s for %s", amount.String(), asset)
	}
	if price.IsNegative() {
		return Holding{}, errors.Errorf("negative price %s for %s", price.String(), asset)
	}

	pair := NewPair(asset, quote)
	return Holding{
		Asset:  pair.From,
		Pair:   pair,
		Amount: amount,
		Price:  price,
	}, nil
}

// Value is Amount * Price in quote currency.
func (h Holding) Value() decimal.Decimal {
	return h.Amount.Mul(h.Price)
}
