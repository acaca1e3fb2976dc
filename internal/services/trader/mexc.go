package trader

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkent600/mexc-portfolio-tracker/internal/clients"
	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

const maxPrecisionDigits = 18

type mexcClient interface {
	Account(ctx context.Context, timestamp int64) (*clients.MexcAccount, error)
	ExchangeInfo(ctx context.Context, symbol string) (*clients.MexcExchangeInfo, error)
	MarketSell(ctx context.Context, symbol, quantity string, timestamp int64) (*clients.MexcOrder, error)
}

type MexcTrader struct {
	client mexcClient
	clock  Timestamper
	l      *zap.Logger
}

func NewMexcTrader(client mexcClient, clock Timestamper, l *zap.Logger) *MexcTrader {
	if l == nil {
		l = zap.NewNop()
	}
	return &MexcTrader{client: client, clock: clock, l: l}
}

// GetBalances returns the free balance of each requested asset.
func (t *MexcTrader) GetBalances(ctx context.Context, assets []string) (map[string]decimal.Decimal, error) {
	ts, err := t.clock.Timestamp()
	if err != nil {
		return nil, errors.Wrap(err, "timestamp account request")
	}

	account, err := t.client.Account(ctx, ts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get mexc account balance")
	}

	want := wanted(assets)
	reported := make(map[string]decimal.Decimal)
	for _, b := range account.Balances {
		asset := strings.ToUpper(b.Asset)
		if _, ok := want[asset]; !ok {
			continue
		}
		free, err := parseAmount(asset, b.Free)
		if err != nil {
			return nil, err
		}
		reported[asset] = free
	}

	return pickBalances(assets, reported), nil
}

// GetLotRule reads the pair's quantity step. Sources in order: a LOT_SIZE
// filter, baseSizePrecision, baseAssetPrecision digits. No source is a hard
// error; a guessed step could produce a rejected or malformed order.
func (t *MexcTrader) GetLotRule(ctx context.Context, pair domain.Pair) (domain.LotRule, error) {
	info, err := t.client.ExchangeInfo(ctx, pair.Symbol())
	if err != nil {
		if errors.Is(err, domain.ErrSymbolNotFound) {
			return domain.LotRule{}, errors.Wrapf(domain.ErrSymbolNotFound, "%s: %v", pair.Symbol(), err)
		}
		return domain.LotRule{}, errors.Wrapf(err, "fetch %s trading rules", pair.Symbol())
	}

	return mexcLotRule(pair, info)
}

func mexcLotRule(pair domain.Pair, info *clients.MexcExchangeInfo) (domain.LotRule, error) {
	var symbol *clients.MexcSymbol
	for i := range info.Symbols {
		if strings.EqualFold(info.Symbols[i].Symbol, pair.Symbol()) {
			symbol = &info.Symbols[i]
			break
		}
	}
	if symbol == nil {
		return domain.LotRule{}, errors.Wrapf(domain.ErrSymbolNotFound, "%s not in exchange info", pair.Symbol())
	}

	rule := domain.LotRule{Pair: pair, MinQty: decimal.Zero}

	for _, f := range symbol.Filters {
		if f.FilterType != "LOT_SIZE" {
			continue
		}
		step, err := decimal.NewFromString(f.StepSize)
		if err != nil || !step.IsPositive() {
			break
		}
		rule.StepSize = step
		if minQty, err := decimal.NewFromString(f.MinQty); err == nil && !minQty.IsNegative() {
			rule.MinQty = minQty
		}
		return rule, nil
	}

	if step, ok := rawDecimal(symbol.BaseSizePrecision); ok && step.IsPositive() {
		rule.StepSize = step
		return rule, nil
	}

	if digits, ok := rawDecimal(symbol.BaseAssetPrecision); ok && digits.IsInteger() &&
		!digits.IsNegative() && digits.IntPart() <= maxPrecisionDigits {
		rule.StepSize = decimal.New(1, -int32(digits.IntPart()))
		return rule, nil
	}

	return domain.LotRule{}, errors.Wrapf(domain.ErrNoUsablePrecision,
		"%s: baseSizePrecision=%s baseAssetPrecision=%s", pair.Symbol(),
		rawText(symbol.BaseSizePrecision), rawText(symbol.BaseAssetPrecision))
}

// rawDecimal accepts a JSON number or a JSON string holding a number.
func rawDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero, false
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "<missing>"
	}
	return string(raw)
}

// SellMarket places a real, irreversible market sell.
func (t *MexcTrader) SellMarket(ctx context.Context, pair domain.Pair, quantity decimal.Decimal) (domain.OrderResult, error) {
	if !quantity.IsPositive() {
		return domain.OrderResult{}, errors.Errorf("refusing to sell non-positive quantity %s of %s", quantity.String(), pair.Symbol())
	}

	ts, err := t.clock.Timestamp()
	if err != nil {
		return domain.OrderResult{}, errors.Wrap(err, "timestamp order request")
	}

	order, err := t.client.MarketSell(ctx, pair.Symbol(), quantity.String(), ts)
	if err != nil {
		return domain.OrderResult{}, errors.Wrapf(err, "failed to create %s sell order", pair.Symbol())
	}

	t.l.Debug("mexc sell acknowledged",
		zap.String("pair", pair.String()),
		zap.String("order_id", string(order.OrderID)),
		zap.String("orig_qty", order.OrigQty))

	acked, err := decimal.NewFromString(order.OrigQty)
	if err != nil {
		acked = quantity
	}
	return domain.OrderResult{
		OrderID:  string(order.OrderID),
		Quantity: acked,
	}, nil
}
