package trader

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

// bybit rejects requests older than its default recv window
const bybitMaxSkew = 5 * time.Second

type BybitTrader struct {
	client *bybit.Client
	l      *zap.Logger
}

// NewBybitTrader creates a spot trader. The bybit client stamps requests
// with local time, so a large measured offset is only reported.
func NewBybitTrader(client *bybit.Client, offset time.Duration, l *zap.Logger) *BybitTrader {
	if l == nil {
		l = zap.NewNop()
	}
	if offset > bybitMaxSkew || offset < -bybitMaxSkew {
		l.Warn("local clock is skewed against bybit server time, signed requests may be rejected",
			zap.Duration("offset", offset))
	}
	return &BybitTrader{client: client, l: l}
}

func (t *BybitTrader) GetBalances(_ context.Context, assets []string) (map[string]decimal.Decimal, error) {
	res, err := t.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bybit account balance")
	}

	want := wanted(assets)
	reported := make(map[string]decimal.Decimal)
	for _, account := range res.Result.List {
		for _, coin := range account.Coin {
			asset := strings.ToUpper(string(coin.Coin))
			if _, ok := want[asset]; !ok {
				continue
			}
			amount, err := bybitFree(asset, coin.WalletBalance, coin.Locked)
			if err != nil {
				return nil, err
			}
			reported[asset] = amount
		}
	}

	return pickBalances(assets, reported), nil
}

// bybitFree is the wallet balance minus what open orders hold.
func bybitFree(asset, wallet, locked string) (decimal.Decimal, error) {
	total, err := parseAmount(asset, wallet)
	if err != nil {
		return decimal.Zero, err
	}
	held, err := parseAmount(asset, locked)
	if err != nil {
		return decimal.Zero, err
	}
	if held.GreaterThanOrEqual(total) {
		return decimal.Zero, nil
	}
	return total.Sub(held), nil
}

func (t *BybitTrader) GetLotRule(_ context.Context, pair domain.Pair) (domain.LotRule, error) {
	symbol := bybit.SymbolV5(pair.Symbol())
	res, err := t.client.V5().Market().GetInstrumentsInfo(bybit.V5GetInstrumentsInfoParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &symbol,
	})
	if err != nil {
		return domain.LotRule{}, errors.Wrapf(err, "fetch %s trading rules", pair.Symbol())
	}
	if res.Result.Spot == nil {
		return domain.LotRule{}, errors.Wrapf(domain.ErrSymbolNotFound, "%s not listed on bybit spot", pair.Symbol())
	}

	for _, item := range res.Result.Spot.List {
		if string(item.Symbol) != pair.Symbol() {
			continue
		}
		step, err := decimal.NewFromString(item.LotSizeFilter.BasePrecision)
		if err != nil || !step.IsPositive() {
			return domain.LotRule{}, errors.Wrapf(domain.ErrNoUsablePrecision, "%s basePrecision=%q", pair.Symbol(), item.LotSizeFilter.BasePrecision)
		}
		minQty, err := decimal.NewFromString(item.LotSizeFilter.MinOrderQty)
		if err != nil || minQty.IsNegative() {
			minQty = decimal.Zero
		}
		return domain.LotRule{Pair: pair, StepSize: step, MinQty: minQty}, nil
	}

	return domain.LotRule{}, errors.Wrapf(domain.ErrSymbolNotFound, "%s not listed on bybit spot", pair.Symbol())
}

func (t *BybitTrader) SellMarket(_ context.Context, pair domain.Pair, quantity decimal.Decimal) (domain.OrderResult, error) {
	if !quantity.IsPositive() {
		return domain.OrderResult{}, errors.Errorf("refusing to sell non-positive quantity %s of %s", quantity.String(), pair.Symbol())
	}

	linkID := uuid.NewString()
	res, err := t.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    bybit.CategoryV5Spot,
		Symbol:      bybit.SymbolV5(pair.Symbol()),
		Side:        bybit.SideSell,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         quantity.String(),
		OrderLinkID: &linkID,
	})
	if err != nil {
		return domain.OrderResult{}, errors.Wrapf(err, "failed to create %s sell order", pair.Symbol())
	}

	t.l.Debug("bybit sell acknowledged",
		zap.String("pair", pair.String()),
		zap.String("order_id", res.Result.OrderID))

	return domain.OrderResult{
		OrderID:       res.Result.OrderID,
		ClientOrderID: res.Result.OrderLinkID,
		Quantity:      quantity,
	}, nil
}
