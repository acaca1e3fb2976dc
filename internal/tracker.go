package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dkent600/mexc-portfolio-tracker/config"
	"github.com/dkent600/mexc-portfolio-tracker/internal/clock"
	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
	"github.com/dkent600/mexc-portfolio-tracker/internal/logging"
	"github.com/dkent600/mexc-portfolio-tracker/internal/redact"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/notifier"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/report"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/snapshot"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/trim"
)

// Tracker runs one evaluation cycle against one exchange account.
type Tracker struct {
	conf     config.Config
	provider serviceProvider
	notifier notifier.Notifier
	l        *zap.Logger
}

// Result is what one cycle observed and did.
type Result struct {
	Snapshot domain.Snapshot
	Alert    report.Alert
	// Trim is nil when the engine did not run.
	Trim     *trim.Summary
}

// NewTracker creates a tracker for client, one of *clients.MexcClient,
// *binance.Client or *bybit.Client.
func NewTracker(conf config.Config, client any, n notifier.Notifier, logger *zap.Logger) (*Tracker, error) {
	provider, err := newServiceProvider(client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service provider")
	}
	if n == nil {
		n = notifier.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		conf:     conf,
		provider: provider,
		notifier: n,
		l:        logger.With(zap.String("platform", conf.Platform)),
	}, nil
}

// Run syncs the clock, values the portfolio, reports it and, when the
// threshold triggers and auto-trim is on, trims synchronously. Any error
// is fatal for the run; per-holding trim failures are not errors.
func (t *Tracker) Run(ctx context.Context) (*Result, error) {
	clk := clock.New(t.provider.TimeSource())
	if err := clk.Sync(ctx); err != nil {
		return nil, err
	}
	t.l.Info("Clock synced", zap.Duration("offset", clk.Offset()))

	tr := t.provider.Trader(clk, t.l)
	builder := snapshot.NewBuilder(tr, t.provider.Pricer(), t.conf.Quote, t.l)

	snap, err := builder.Build(ctx, t.conf.Assets)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build portfolio snapshot")
	}

	total := snap.TotalValue()
	alert := report.Alert{
		Threshold: t.conf.AlertThreshold,
		Direction: t.conf.AlertWhen,
		Triggered: t.conf.AlertWhen.Triggered(total, t.conf.AlertThreshold),
	}
	logging.Lines(t.l, report.Lines(snap, alert))
	notifier.Attempt(ctx, t.notifier, report.SnapshotMessage(snap, alert), t.l)

	res := &Result{Snapshot: snap, Alert: alert}
	if !alert.Triggered {
		return res, nil
	}
	if !t.conf.AutoTrim {
		t.l.Info("Threshold triggered, auto-trim disabled", zap.String("total", total.String()))
		return res, nil
	}

	t.l.Info("Threshold triggered, trimming holdings above base value",
		zap.String("total", total.String()),
		zap.String("base", t.conf.BaseValue.String()),
		zap.Bool("dryRun", t.conf.DryRun))

	engine := trim.NewEngine(tr, tr, t.notifier, t.l, trim.WithDryRun(t.conf.DryRun))
	summary := engine.Run(ctx, snap, t.conf.BaseValue)
	res.Trim = &summary

	notifier.Attempt(ctx, t.notifier, report.SummaryMessage(summary), t.l)
	return res, nil
}

// ReportFailure logs and notifies a fatal run error, redacted and stamped
// with at. If the notifier fails, both errors go to fallback, which
// defaults to stderr.
func ReportFailure(ctx context.Context, at time.Time, runErr error, r *redact.Redactor, l *zap.Logger, n notifier.Notifier, fallback io.Writer) {
	if fallback == nil {
		fallback = os.Stderr
	}
	detail := r.String(report.ErrorDetail(runErr))
	text := report.FailureText(at, detail)

	if l != nil {
		l.Error(text)
	} else {
		fmt.Fprintln(fallback, text)
	}

	if n == nil {
		return
	}
	if err := n.Notify(ctx, report.FailureMessage(at, detail)); err != nil {
		fmt.Fprintln(fallback, text)
		fmt.Fprintln(fallback, "failed to notify run failure: "+r.Error(err))
	}
}
