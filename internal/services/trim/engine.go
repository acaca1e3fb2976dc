package trim

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/notifier"
)

type ruleSource interface {
	GetLotRule(ctx context.Context, pair domain.Pair) (domain.LotRule, error)
}

type seller interface {
	SellMarket(ctx context.Context, pair domain.Pair, quantity decimal.Decimal) (domain.OrderResult, error)
}

// Engine walks a snapshot and trims every holding above the base.
type Engine struct {
	rules    ruleSource
	seller   seller
	notifier notifier.Notifier
	dryRun   bool
	l        *zap.Logger
}

type Option func(*Engine)

// WithDryRun logs and notifies the orders a run would place without
// submitting them.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

func NewEngine(rules ruleSource, s seller, n notifier.Notifier, l *zap.Logger, opts ...Option) *Engine {
	if l == nil {
		l = zap.NewNop()
	}
	if n == nil {
		n = notifier.Nop{}
	}
	e := &Engine{
		rules:    rules,
		seller:   s,
		notifier: n,
		l:        l,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary is the ordered list of per-holding decisions of one run.
type Summary struct {
	Decisions []Decision
	DryRun    bool
}

// Sold returns the decisions that placed an order.
func (s Summary) Sold() []Decision {
	return s.filter(StatusSold)
}

// Failed returns per-item failures: lot rule lookups and rejected orders.
func (s Summary) Failed() []Decision {
	return s.filter(StatusLotRuleFailed, StatusSellFailed)
}

func (s Summary) filter(statuses ...Status) []Decision {
	var out []Decision
	for _, d := range s.Decisions {
		for _, st := range statuses {
			if d.Status == st {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// Run trims holdings one at a time in snapshot order. Failures are per
// holding: a missing lot rule or a rejected order is logged and notified
// and the run moves on to the next holding. Run itself never fails.
func (e *Engine) Run(ctx context.Context, snap domain.Snapshot, base decimal.Decimal) Summary {
	summary := Summary{
		Decisions: make([]Decision, 0, len(snap.Holdings)),
		DryRun:    e.dryRun,
	}
	for _, h := range snap.Holdings {
		d := e.trim(ctx, h, base)
		e.log(d)
		if d.Notable() {
			notifier.Attempt(ctx, e.notifier, d.Message(), e.l)
		}
		summary.Decisions = append(summary.Decisions, d)
	}
	return summary
}

func (e *Engine) trim(ctx context.Context, h domain.Holding, base decimal.Decimal) Decision {
	if excess := Excess(h, base); !excess.IsPositive() {
		return Decision{Holding: h, Base: base, Excess: excess, Status: StatusUnderBase}
	}

	rule, err := e.rules.GetLotRule(ctx, h.Pair)
	if err == nil {
		err = rule.Validate()
	}
	if err != nil {
		return Decision{
			Holding: h,
			Base:    base,
			Excess:  Excess(h, base),
			Status:  StatusLotRuleFailed,
			Err:     errors.Wrapf(err, "lot rule for %s", h.Pair.Symbol()),
		}
	}

	d := Plan(h, base, rule)
	if d.Status != StatusPlanned {
		return d
	}
	if e.dryRun {
		d.Status = StatusDryRun
		return d
	}

	res, err := e.seller.SellMarket(ctx, h.Pair, d.Quantity)
	if err != nil {
		d.Status = StatusSellFailed
		d.Err = errors.Wrapf(err, "market sell %s %s", d.Quantity.String(), h.Pair.Symbol())
		return d
	}
	d.Status = StatusSold
	d.Order = &res
	return d
}

func (e *Engine) log(d Decision) {
	fields := []zap.Field{
		zap.String("pair", d.Holding.Pair.Symbol()),
		zap.String("status", string(d.Status)),
		zap.String("value", d.Holding.Value().String()),
		zap.String("excess", d.Excess.String()),
	}
	if !d.RawQuantity.IsZero() {
		fields = append(fields,
			zap.String("rawQuantity", d.RawQuantity.String()),
			zap.String("quantity", d.Quantity.String()),
			zap.String("stepSize", d.Rule.StepSize.String()),
		)
	}

	switch d.Status {
	case StatusUnderBase:
		e.l.Info("At or under base value, nothing to trim", fields...)
	case StatusBelowStep:
		e.l.Info("Excess is smaller than one lot step, no order placed", fields...)
	case StatusBelowMinQty:
		e.l.Info("Rounded quantity is below the minimum order size, no order placed",
			append(fields, zap.String("minQty", d.Rule.MinQty.String()))...)
	case StatusDryRun:
		e.l.Info("Dry run, order not submitted", fields...)
	case StatusSold:
		e.l.Info("Market sell submitted", append(fields, zap.String("orderID", d.Order.OrderID))...)
	case StatusLotRuleFailed:
		e.l.Error("Lot rule unavailable, skipping holding", append(fields, zap.Error(d.Err))...)
	case StatusSellFailed:
		e.l.Error("Market sell failed", append(fields, zap.Error(d.Err))...)
	}
}
