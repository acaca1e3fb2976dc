package pricer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dkent600/mexc-portfolio-tracker/internal/clients"
	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

type mexcTicker interface {
	TickerPrice(ctx context.Context, symbol string) (*clients.MexcTickerPrice, error)
}

// MexcPricer reads prices from the unauthenticated MEXC ticker endpoint.
type MexcPricer struct {
	client mexcTicker
}

func NewMexcPricer(client mexcTicker) *MexcPricer {
	return &MexcPricer{client: client}
}

// GetPrice returns the last price of pair.
func (p *MexcPricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	ticker, err := p.client.TickerPrice(ctx, pair.Symbol())
	if err != nil {
		var decodeErr *clients.DecodeError
		if errors.Is(err, domain.ErrSymbolNotFound) || errors.As(err, &decodeErr) {
			return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "%s: %v", pair.Symbol(), err)
		}
		return decimal.Zero, errors.Wrapf(err, "fetch %s price", pair.Symbol())
	}
	if ticker.Symbol != "" && ticker.Symbol != pair.Symbol() {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "asked for %s, got %s", pair.Symbol(), ticker.Symbol)
	}

	return parsePrice(pair, ticker.Price)
}
