package internal

import (
	"context"
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkent600/mexc-portfolio-tracker/internal/clients"
	"github.com/dkent600/mexc-portfolio-tracker/internal/clock"
	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/pricer"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/servertime"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/trader"
)

type priceService interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

type traderService interface {
	GetBalances(ctx context.Context, assets []string) (map[string]decimal.Decimal, error)
	GetLotRule(ctx context.Context, pair domain.Pair) (domain.LotRule, error)
	SellMarket(ctx context.Context, pair domain.Pair, quantity decimal.Decimal) (domain.OrderResult, error)
}

// serviceProvider builds the platform-specific services for one run.
// Trader must be called after the clock is synced.
type serviceProvider interface {
	TimeSource() clock.TimeSource
	Pricer() priceService
	Trader(clk *clock.Clock, l *zap.Logger) traderService
}

// newServiceProvider dispatches on the concrete client type.
func newServiceProvider(client any) (serviceProvider, error) {
	switch c := client.(type) {
	case *clients.MexcClient:
		return &mexcProvider{client: c}, nil
	case *binance.Client:
		return &binanceProvider{client: c}, nil
	case *bybit.Client:
		return &bybitProvider{client: c}, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

type mexcProvider struct {
	client *clients.MexcClient
}

func (p *mexcProvider) TimeSource() clock.TimeSource {
	return servertime.NewMexc(p.client)
}
func (p *mexcProvider) Pricer() priceService {
	return pricer.NewMexcPricer(p.client)
}
func (p *mexcProvider) Trader(clk *clock.Clock, l *zap.Logger) traderService {
	return trader.NewMexcTrader(p.client, clk, l)
}

type binanceProvider struct {
	client *binance.Client
}

func (p *binanceProvider) TimeSource() clock.TimeSource {
	return servertime.NewBinance(p.client)
}
func (p *binanceProvider) Pricer() priceService {
	return pricer.NewBinancePricer(p.client)
}
func (p *binanceProvider) Trader(clk *clock.Clock, l *zap.Logger) traderService {
	return trader.NewBinanceTrader(p.client, clk.Offset(), l)
}

type bybitProvider struct {
	client *bybit.Client
}

func (p *bybitProvider) TimeSource() clock.TimeSource {
	return servertime.NewBybit(p.client)
}
func (p *bybitProvider) Pricer() priceService {
	return pricer.NewBybitPricer(p.client)
}
func (p *bybitProvider) Trader(clk *clock.Clock, l *zap.Logger) traderService {
	return trader.NewBybitTrader(p.client, clk.Offset(), l)
}
