package trader

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

const binanceClientOrderPrefix = "trim-"

type BinanceTrader struct {
	client *binance.Client
	l      *zap.Logger
}

// NewBinanceTrader applies the synced clock offset to the client. go-binance
// stamps signed requests with local time minus TimeOffset.
func NewBinanceTrader(client *binance.Client, offset time.Duration, l *zap.Logger) *BinanceTrader {
	if l == nil {
		l = zap.NewNop()
	}
	client.TimeOffset = -offset.Milliseconds()
	return &BinanceTrader{client: client, l: l}
}

func (t *BinanceTrader) GetBalances(ctx context.Context, assets []string) (map[string]decimal.Decimal, error) {
	account, err := t.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get binance account balance")
	}

	want := wanted(assets)
	reported := make(map[string]decimal.Decimal)
	for _, balance := range account.Balances {
		asset := strings.ToUpper(balance.Asset)
		if _, ok := want[asset]; !ok {
			continue
		}
		free, err := parseAmount(asset, balance.Free)
		if err != nil {
			return nil, err
		}
		reported[asset] = free
	}

	return pickBalances(assets, reported), nil
}

func (t *BinanceTrader) GetLotRule(ctx context.Context, pair domain.Pair) (domain.LotRule, error) {
	info, err := t.client.NewExchangeInfoService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == -1121 {
			return domain.LotRule{}, errors.Wrapf(domain.ErrSymbolNotFound, "%s: %v", pair.Symbol(), err)
		}
		return domain.LotRule{}, errors.Wrapf(err, "fetch %s trading rules", pair.Symbol())
	}

	for i := range info.Symbols {
		symbol := &info.Symbols[i]
		if symbol.Symbol != pair.Symbol() {
			continue
		}

		lot := symbol.LotSizeFilter()
		if lot == nil {
			return domain.LotRule{}, errors.Wrapf(domain.ErrNoUsablePrecision, "%s has no LOT_SIZE filter", pair.Symbol())
		}
		step, err := decimal.NewFromString(lot.StepSize)
		if err != nil || !step.IsPositive() {
			return domain.LotRule{}, errors.Wrapf(domain.ErrNoUsablePrecision, "%s stepSize=%q", pair.Symbol(), lot.StepSize)
		}
		minQty, err := decimal.NewFromString(lot.MinQuantity)
		if err != nil || minQty.IsNegative() {
			minQty = decimal.Zero
		}
		return domain.LotRule{Pair: pair, StepSize: step, MinQty: minQty}, nil
	}

	return domain.LotRule{}, errors.Wrapf(domain.ErrSymbolNotFound, "%s not in exchange info", pair.Symbol())
}

func (t *BinanceTrader) SellMarket(ctx context.Context, pair domain.Pair, quantity decimal.Decimal) (domain.OrderResult, error) {
	if !quantity.IsPositive() {
		return domain.OrderResult{}, errors.Errorf("refusing to sell non-positive quantity %s of %s", quantity.String(), pair.Symbol())
	}

	clientOrderID := binanceClientOrderPrefix + uuid.NewString()
	res, err := t.client.NewCreateOrderService().Symbol(pair.Symbol()).
		Side(binance.SideTypeSell).Type(binance.OrderTypeMarket).
		Quantity(quantity.String()).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return domain.OrderResult{}, errors.Wrapf(err, "failed to create %s sell order", pair.Symbol())
	}

	acked, err := decimal.NewFromString(res.OrigQuantity)
	if err != nil {
		acked = quantity
	}

	t.l.Debug("binance sell acknowledged",
		zap.String("pair", pair.String()),
		zap.Int64("order_id", res.OrderID),
		zap.String("status", string(res.Status)))

	return domain.OrderResult{
		OrderID:       strconv.FormatInt(res.OrderID, 10),
		ClientOrderID: res.ClientOrderID,
		Status:        string(res.Status),
		Quantity:      acked,
	}, nil
}
