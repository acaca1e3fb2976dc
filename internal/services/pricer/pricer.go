// Package pricer fetches last-trade prices per exchange.
package pricer

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

// parsePrice turns an exchange price string into a non-negative decimal.
// Anything unusable is reported as ErrPriceUnavailable.
func parsePrice(pair domain.Pair, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "empty price for %s", pair.Symbol())
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "unparseable price %q for %s", raw, pair.Symbol())
	}
	if price.IsNegative() {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "negative price %s for %s", raw, pair.Symbol())
	}
	return price, nil
}
