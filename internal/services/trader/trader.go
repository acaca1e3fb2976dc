// Package trader reads balances and lot rules and places market sells on
// each supported exchange.
package trader

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Timestamper yields the synchronized request timestamp in milliseconds.
type Timestamper interface {
	Timestamp() (int64, error)
}

// pickBalances returns an entry for every requested asset; assets the
// exchange did not report are explicitly zero.
func pickBalances(assets []string, reported map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(assets))
	for _, asset := range assets {
		key := strings.ToUpper(asset)
		if amount, ok := reported[key]; ok {
			out[key] = amount
			continue
		}
		out[key] = decimal.Zero
	}
	return out
}

func parseAmount(asset, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse %s balance %q", asset, raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, errors.Errorf("negative %s balance %s", asset, raw)
	}
	return amount, nil
}

func wanted(assets []string) map[string]struct{} {
	set := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		set[strings.ToUpper(a)] = struct{}{}
	}
	return set
}
