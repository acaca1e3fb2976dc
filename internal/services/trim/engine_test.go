package trim

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func holding(t *testing.T, asset, amount, price string) domain.Holding {
	t.Helper()
	h, err := domain.NewHolding(asset, "USDT", d(amount), d(price))
	require.NoError(t, err)
	return h
}

func rule(asset, step, minQty string) domain.LotRule {
	return domain.LotRule{Pair: domain.NewPair(asset, "USDT"), StepSize: d(step), MinQty: d(minQty)}
}

type fakeRules struct {
	rules map[string]domain.LotRule
	errs  map[string]error
	asked []string
}

func (f *fakeRules) GetLotRule(ctx context.Context, pair domain.Pair) (domain.LotRule, error) {
	f.asked = append(f.asked, pair.Symbol())
	if err, ok := f.errs[pair.Symbol()]; ok {
		return domain.LotRule{}, err
	}
	r, ok := f.rules[pair.Symbol()]
	if !ok {
		return domain.LotRule{}, errors.Wrap(domain.ErrSymbolNotFound, pair.Symbol())
	}
	return r, nil
}

type sale struct {
	symbol   string
	quantity decimal.Decimal
}

type fakeSeller struct {
	errs  map[string]error
	sales []sale
}

func (f *fakeSeller) SellMarket(ctx context.Context, pair domain.Pair, quantity decimal.Decimal) (domain.OrderResult, error) {
	f.sales = append(f.sales, sale{symbol: pair.Symbol(), quantity: quantity})
	if err, ok := f.errs[pair.Symbol()]; ok {
		return domain.OrderResult{}, err
	}
	return domain.OrderResult{OrderID: "ord-" + pair.Symbol(), Quantity: quantity}, nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(ctx context.Context, msg string) error {
	n.messages = append(n.messages, msg)
	return nil
}

func snapshotOf(hs ...domain.Holding) domain.Snapshot {
	return domain.NewSnapshot(hs, time.Now())
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		price    string
		base     string
		step     string
		minQty   string
		status   Status
		quantity string
	}{
		{name: "step aligned", amount: "10", price: "80", base: "500", step: "0.01", minQty: "0", status: StatusPlanned, quantity: "3.75"},
		{name: "whole steps round down", amount: "10", price: "80", base: "500", step: "1", minQty: "0", status: StatusPlanned, quantity: "3"},
		{name: "non power of ten step", amount: "10", price: "80", base: "500", step: "0.5", minQty: "0", status: StatusPlanned, quantity: "3.5"},
		{name: "under base", amount: "5", price: "80", base: "500", step: "0.01", minQty: "0", status: StatusUnderBase, quantity: "0"},
		{name: "exactly at base", amount: "6.25", price: "80", base: "500", step: "0.01", minQty: "0", status: StatusUnderBase, quantity: "0"},
		{name: "excess below one step", amount: "10", price: "80", base: "790", step: "1", minQty: "0", status: StatusBelowStep, quantity: "0"},
		{name: "below min qty", amount: "10", price: "80", base: "700", step: "0.01", minQty: "2", status: StatusBelowMinQty, quantity: "1.25"},
		{name: "zero price", amount: "10", price: "0", base: "500", step: "0.01", minQty: "0", status: StatusUnderBase, quantity: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(holding(t, "AVAX", tt.amount, tt.price), d(tt.base), rule("AVAX", tt.step, tt.minQty))
			assert.Equal(t, tt.status, got.Status)
			assert.True(t, got.Quantity.Equal(d(tt.quantity)), "quantity %s, want %s", got.Quantity, tt.quantity)
		})
	}
}

func TestPlan_RoundsDownToStepMultiple(t *testing.T) {
	steps := []string{"1", "0.1", "0.01", "0.001", "0.00001", "0.25", "0.05", "3"}
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		amount := decimal.New(rnd.Int63n(10_000_000), -3)
		price := decimal.New(rnd.Int63n(10_000_000)+1, -2)
		base := decimal.New(rnd.Int63n(1_000_000), -2)
		step := d(steps[rnd.Intn(len(steps))])

		h, err := domain.NewHolding("X", "USDT", amount, price)
		require.NoError(t, err)
		got := Plan(h, base, domain.LotRule{StepSize: step})

		if h.Value().LessThanOrEqual(base) {
			require.Equal(t, StatusUnderBase, got.Status)
			require.True(t, got.Quantity.IsZero())
			continue
		}

		require.False(t, got.Quantity.IsNegative())
		require.True(t, got.Quantity.Mod(step).IsZero(), "%s is not a multiple of %s", got.Quantity, step)
		require.True(t, got.Quantity.LessThanOrEqual(got.RawQuantity), "%s sells more than %s", got.Quantity, got.RawQuantity)
		maxSteps := h.Value().Sub(base).Div(price).Div(step).Floor()
		require.True(t, got.Quantity.Div(step).LessThanOrEqual(maxSteps))
	}
}

func TestEngine_ScenarioA(t *testing.T) {
	rules := &fakeRules{rules: map[string]domain.LotRule{"AVAXUSDT": rule("AVAX", "0.01", "0")}}
	seller := &fakeSeller{}
	n := &recordingNotifier{}

	summary := NewEngine(rules, seller, n, nil).Run(context.Background(), snapshotOf(holding(t, "AVAX", "10", "80")), d("500"))

	require.Len(t, seller.sales, 1)
	assert.Equal(t, "AVAXUSDT", seller.sales[0].symbol)
	assert.True(t, seller.sales[0].quantity.Equal(d("3.75")))

	require.Len(t, summary.Decisions, 1)
	got := summary.Decisions[0]
	assert.Equal(t, StatusSold, got.Status)
	assert.True(t, got.Excess.Equal(d("300")))
	assert.True(t, got.RawQuantity.Equal(d("3.75")))
	require.NotNil(t, got.Order)
	assert.Equal(t, "ord-AVAXUSDT", got.Order.OrderID)

	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Trimmed AVAX")
	assert.Contains(t, n.messages[0], "<code>3.75</code>")
}

func TestEngine_ScenarioB(t *testing.T) {
	rules := &fakeRules{rules: map[string]domain.LotRule{"AVAXUSDT": rule("AVAX", "1", "0")}}
	seller := &fakeSeller{}

	NewEngine(rules, seller, nil, nil).Run(context.Background(), snapshotOf(holding(t, "AVAX", "10", "80")), d("500"))

	require.Len(t, seller.sales, 1)
	assert.True(t, seller.sales[0].quantity.Equal(d("3")))
}

func TestEngine_ScenarioC(t *testing.T) {
	rules := &fakeRules{}
	seller := &fakeSeller{}
	n := &recordingNotifier{}

	summary := NewEngine(rules, seller, n, nil).Run(context.Background(), snapshotOf(holding(t, "AVAX", "5", "80")), d("500"))

	assert.Empty(t, seller.sales)
	assert.Empty(t, rules.asked, "no lot rule lookup under base")
	assert.Empty(t, n.messages)
	require.Len(t, summary.Decisions, 1)
	assert.Equal(t, StatusUnderBase, summary.Decisions[0].Status)
	assert.Nil(t, summary.Decisions[0].Err)
	assert.Empty(t, summary.Failed())
}

func TestEngine_ScenarioE(t *testing.T) {
	rules := &fakeRules{rules: map[string]domain.LotRule{
		"AVAXUSDT": rule("AVAX", "0.01", "0"),
		"SOLUSDT":  rule("SOL", "0.001", "0"),
	}}
	seller := &fakeSeller{}

	summary := NewEngine(rules, seller, nil, nil).Run(context.Background(),
		snapshotOf(holding(t, "AVAX", "10", "80"), holding(t, "SOL", "2", "150")), d("500"))

	require.Len(t, seller.sales, 1)
	assert.Equal(t, "AVAXUSDT", seller.sales[0].symbol)
	require.Len(t, summary.Decisions, 2)
	assert.Equal(t, StatusSold, summary.Decisions[0].Status)
	assert.Equal(t, StatusUnderBase, summary.Decisions[1].Status)
	assert.Len(t, summary.Sold(), 1)
}

func TestEngine_IdempotentAtBase(t *testing.T) {
	rules := &fakeRules{rules: map[string]domain.LotRule{}}
	seller := &fakeSeller{}

	snap := snapshotOf(
		holding(t, "AVAX", "6.25", "80"),
		holding(t, "SOL", "2.5", "200"),
		holding(t, "BTC", "0.01", "50000"),
	)
	summary := NewEngine(rules, seller, nil, nil).Run(context.Background(), snap, d("500"))

	assert.Empty(t, seller.sales)
	for _, dec := range summary.Decisions {
		assert.Equal(t, StatusUnderBase, dec.Status)
	}
}

func TestEngine_ContinuesAfterFailures(t *testing.T) {
	rules := &fakeRules{
		rules: map[string]domain.LotRule{
			"SOLUSDT": rule("SOL", "0.001", "0"),
			"ETHUSDT": rule("ETH", "0.0001", "0"),
		},
		errs: map[string]error{"AVAXUSDT": errors.Wrap(domain.ErrNoUsablePrecision, "AVAXUSDT")},
	}
	seller := &fakeSeller{errs: map[string]error{"SOLUSDT": errors.New("insufficient balance")}}
	n := &recordingNotifier{}

	snap := snapshotOf(
		holding(t, "AVAX", "10", "80"),
		holding(t, "SOL", "5", "150"),
		holding(t, "ETH", "1", "3000"),
	)
	summary := NewEngine(rules, seller, n, nil).Run(context.Background(), snap, d("500"))

	require.Len(t, summary.Decisions, 3)
	assert.Equal(t, StatusLotRuleFailed, summary.Decisions[0].Status)
	assert.ErrorIs(t, summary.Decisions[0].Err, domain.ErrNoUsablePrecision)
	assert.Equal(t, StatusSellFailed, summary.Decisions[1].Status)
	assert.Equal(t, StatusSold, summary.Decisions[2].Status)
	assert.True(t, summary.Decisions[2].Quantity.Equal(d("0.8333")))

	assert.Equal(t, []string{"SOLUSDT", "ETHUSDT"}, []string{seller.sales[0].symbol, seller.sales[1].symbol})
	assert.Len(t, summary.Failed(), 2)
	require.Len(t, n.messages, 3)
	assert.Contains(t, n.messages[0], "Trim skipped: AVAX")
	assert.Contains(t, n.messages[1], "insufficient balance")
}

func TestEngine_InvalidRuleIsPerItemFailure(t *testing.T) {
	rules := &fakeRules{rules: map[string]domain.LotRule{"AVAXUSDT": rule("AVAX", "0", "0")}}
	seller := &fakeSeller{}

	summary := NewEngine(rules, seller, nil, nil).Run(context.Background(), snapshotOf(holding(t, "AVAX", "10", "80")), d("500"))

	assert.Empty(t, seller.sales)
	assert.Equal(t, StatusLotRuleFailed, summary.Decisions[0].Status)
	assert.ErrorIs(t, summary.Decisions[0].Err, domain.ErrNoUsablePrecision)
}

func TestEngine_DryRun(t *testing.T) {
	rules := &fakeRules{rules: map[string]domain.LotRule{"AVAXUSDT": rule("AVAX", "0.01", "0")}}
	seller := &fakeSeller{}
	n := &recordingNotifier{}
	core, logs := observer.New(zapcore.InfoLevel)

	summary := NewEngine(rules, seller, n, zap.New(core), WithDryRun(true)).
		Run(context.Background(), snapshotOf(holding(t, "AVAX", "10", "80")), d("500"))

	assert.Empty(t, seller.sales)
	assert.True(t, summary.DryRun)
	assert.Equal(t, StatusDryRun, summary.Decisions[0].Status)
	assert.True(t, summary.Decisions[0].Quantity.Equal(d("3.75")))
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], "Would sell")
	assert.Equal(t, 1, logs.FilterMessage("Dry run, order not submitted").Len())
}

func TestEngine_LogsEveryOutcome(t *testing.T) {
	rules := &fakeRules{rules: map[string]domain.LotRule{"AVAXUSDT": rule("AVAX", "1", "0")}}
	core, logs := observer.New(zapcore.InfoLevel)

	NewEngine(rules, &fakeSeller{}, nil, zap.New(core)).Run(context.Background(),
		snapshotOf(holding(t, "AVAX", "10", "79.9"), holding(t, "SOL", "1", "100")), d("790"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Excess is smaller than one lot step, no order placed", logs.All()[0].Message)
	assert.Equal(t, "At or under base value, nothing to trim", logs.All()[1].Message)
}
