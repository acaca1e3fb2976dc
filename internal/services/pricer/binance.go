package pricer

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

const binanceInvalidSymbolCode = -1121

type BinancePricer struct {
	client *binance.Client
}

func NewBinancePricer(client *binance.Client) *BinancePricer {
	return &BinancePricer{client: client}
}

func (p *BinancePricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == binanceInvalidSymbolCode {
			return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "%s: %v", pair.Symbol(), err)
		}
		return decimal.Zero, errors.Wrapf(err, "fetch %s price", pair.Symbol())
	}

	for _, price := range prices {
		if price != nil && price.Symbol == pair.Symbol() {
			return parsePrice(pair, price.Price)
		}
	}

	return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "binance returned no price for %s", pair.Symbol())
}
