// Package snapshot values the configured assets into a portfolio snapshot.
package snapshot

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

type balancer interface {
	GetBalances(ctx context.Context, assets []string) (map[string]decimal.Decimal, error)
}

type pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// Builder combines balances and prices into holdings.
type Builder struct {
	balances balancer
	prices   pricer
	quote    string
	now      func() time.Time
	l        *zap.Logger
}

func NewBuilder(balances balancer, prices pricer, quote string, l *zap.Logger) *Builder {
	if l == nil {
		l = zap.NewNop()
	}
	return &Builder{
		balances: balances,
		prices:   prices,
		quote:    strings.ToUpper(quote),
		now:      time.Now,
		l:        l,
	}
}

// Build fetches balances once and then prices one asset at a time in the
// given order. Any failure aborts: a partial snapshot would misstate the total.
func (b *Builder) Build(ctx context.Context, assets []string) (domain.Snapshot, error) {
	balances, err := b.balances.GetBalances(ctx, assets)
	if err != nil {
		return domain.Snapshot{}, errors.Wrap(err, "fetch balances")
	}

	holdings := make([]domain.Holding, 0, len(assets))
	for _, asset := range assets {
		asset = strings.ToUpper(asset)
		pair := domain.NewPair(asset, b.quote)

		amount, ok := balances[asset]
		if !ok {
			amount = decimal.Zero
		}

		price := decimal.NewFromInt(1)
		if asset != b.quote {
			price, err = b.prices.GetPrice(ctx, pair)
			if err != nil {
				return domain.Snapshot{}, errors.Wrapf(err, "fetch %s price", pair.Symbol())
			}
		}

		h, err := domain.NewHolding(asset, b.quote, amount, price)
		if err != nil {
			return domain.Snapshot{}, err
		}
		holdings = append(holdings, h)

		b.l.Debug("holding valued",
			zap.String("pair", pair.String()),
			zap.String("amount", amount.String()),
			zap.String("price", price.String()),
			zap.String("value", h.Value().String()))
	}

	return domain.NewSnapshot(holdings, b.now()), nil
}
