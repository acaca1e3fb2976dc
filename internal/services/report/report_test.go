package report

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/trim"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func snapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	avax, err := domain.NewHolding("AVAX", "USDT", d("10"), d("80"))
	require.NoError(t, err)
	sol, err := domain.NewHolding("SOL", "USDT", d("2"), d("150"))
	require.NoError(t, err)
	shib, err := domain.NewHolding("SHIB", "USDT", d("1000000"), d("0.00001234"))
	require.NoError(t, err)
	return domain.NewSnapshot([]domain.Holding{avax, sol, shib}, time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC))
}

func TestLines(t *testing.T) {
	lines := Lines(snapshot(t), Alert{Threshold: d("1000"), Direction: domain.AlertAbove, Triggered: true})

	assert.Equal(t, []string{
		"Portfolio snapshot 2026-10-18T09:30:00Z",
		"AVAX 10 × $80.00 = $800.00",
		"SOL 2 × $150.00 = $300.00",
		"SHIB 1000000 × $0.00001234 = $12.34",
		"Total: $1112.34",
		"Threshold: $1000.00 (alert when above): TRIGGERED",
	}, lines)
}

func TestSnapshotMessage(t *testing.T) {
	quiet := SnapshotMessage(snapshot(t), Alert{Threshold: d("2000"), Direction: domain.AlertAbove})
	assert.Contains(t, quiet, "<b>Portfolio: $1112.34</b>")
	assert.Contains(t, quiet, "<pre>")
	assert.Contains(t, quiet, "AVAX 10 × $80.00 = $800.00")

	alert := SnapshotMessage(snapshot(t), Alert{Threshold: d("2000"), Direction: domain.AlertBelow, Triggered: true})
	assert.Contains(t, alert, "<b>Alert: portfolio $1112.34 is below $2000.00</b>")
}

func TestSummaryMessage(t *testing.T) {
	snap := snapshot(t)
	s := trim.Summary{Decisions: []trim.Decision{
		{Holding: snap.Holdings[0], Status: trim.StatusSold, Quantity: d("3.75")},
		{Holding: snap.Holdings[1], Status: trim.StatusSellFailed, Err: errors.New("insufficient <balance>")},
		{Holding: snap.Holdings[2], Status: trim.StatusUnderBase},
	}}

	msg := SummaryMessage(s)
	assert.Contains(t, msg, "<b>Auto-trim: 1 sold, 1 failed</b>")
	assert.Contains(t, msg, "sold            3.75 AVAXUSDT")
	assert.Contains(t, msg, "insufficient &lt;balance&gt;")
	assert.Contains(t, msg, "under_base      $12.34")

	s.DryRun = true
	assert.Contains(t, SummaryMessage(s), "<b>Auto-trim dry run</b>")
}

func TestFailure(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	err := errors.Wrap(errors.New("connection refused"), "fetch balances")

	detail := ErrorDetail(err)
	text := FailureText(at, detail)
	assert.Contains(t, text, "2026-10-18T09:30:00Z portfolio run failed: connection refused")
	assert.Contains(t, text, "fetch balances")
	assert.Contains(t, text, "report_test.go", "stack trace included")

	msg := FailureMessage(at, "a < b")
	assert.Contains(t, msg, "<b>Portfolio run failed</b> <code>2026-10-18T09:30:00Z</code>")
	assert.Contains(t, msg, "<pre>a &lt; b</pre>")
}
