// Package report renders snapshots, trim outcomes and failures as text for
// the log and as markup for the notifier.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/notifier"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/trim"
)

// Alert is the threshold evaluation of one snapshot.
type Alert struct {
	Threshold decimal.Decimal
	Direction domain.AlertDirection
	Triggered bool
}

// Lines is the persisted textual report: one line per holding, the total,
// then the threshold check.
func Lines(snap domain.Snapshot, alert Alert) []string {
	lines := make([]string, 0, len(snap.Holdings)+3)
	lines = append(lines, "Portfolio snapshot "+snap.TakenAt.UTC().Format(time.RFC3339))
	for _, h := range snap.Holdings {
		lines = append(lines, HoldingLine(h))
	}
	lines = append(lines, "Total: "+money(snap.TotalValue()))

	state := "not triggered"
	if alert.Triggered {
		state = "TRIGGERED"
	}
	lines = append(lines, fmt.Sprintf("Threshold: %s (alert when %s): %s",
		money(alert.Threshold), alert.Direction.String(), state))
	return lines
}

// HoldingLine formats one holding, e.g. "AVAX 10 × $80.00 = $800.00".
func HoldingLine(h domain.Holding) string {
	return fmt.Sprintf("%s %s × %s = %s", h.Asset, h.Amount.String(), price(h.Price), money(h.Value()))
}

// SnapshotMessage is the report for the operator channel.
func SnapshotMessage(snap domain.Snapshot, alert Alert) string {
	title := "Portfolio: " + money(snap.TotalValue())
	if alert.Triggered {
		title = "Alert: portfolio " + money(snap.TotalValue()) + " is " + alert.Direction.String() + " " + money(alert.Threshold)
	}
	return notifier.Bold(title) + "\n" + notifier.Pre(strings.Join(Lines(snap, alert), "\n"))
}

// SummaryMessage lists the outcome of every holding after a trim run.
func SummaryMessage(s trim.Summary) string {
	title := fmt.Sprintf("Auto-trim: %d sold, %d failed", len(s.Sold()), len(s.Failed()))
	if s.DryRun {
		title = "Auto-trim dry run"
	}

	rows := make([]string, 0, len(s.Decisions))
	for _, d := range s.Decisions {
		rows = append(rows, decisionLine(d))
	}
	return notifier.Bold(title) + "\n" + notifier.Pre(strings.Join(rows, "\n"))
}

func decisionLine(d trim.Decision) string {
	switch d.Status {
	case trim.StatusSold, trim.StatusDryRun:
		return fmt.Sprintf("%-6s %-15s %s %s", d.Holding.Asset, d.Status, d.Quantity.String(), d.Holding.Pair.Symbol())
	case trim.StatusSellFailed, trim.StatusLotRuleFailed:
		return fmt.Sprintf("%-6s %-15s %v", d.Holding.Asset, d.Status, d.Err)
	case trim.StatusUnderBase:
		return fmt.Sprintf("%-6s %-15s %s", d.Holding.Asset, d.Status, money(d.Holding.Value()))
	default:
		return fmt.Sprintf("%-6s %-15s excess %s", d.Holding.Asset, d.Status, money(d.Excess))
	}
}

// ErrorDetail is err with its stack when it carries one.
func ErrorDetail(err error) string {
	return fmt.Sprintf("%+v", err)
}

// FailureText is the fatal error line for the log and the console fallback.
func FailureText(at time.Time, detail string) string {
	return at.UTC().Format(time.RFC3339) + " portfolio run failed: " + detail
}

// FailureMessage is the fatal error alert.
func FailureMessage(at time.Time, detail string) string {
	return notifier.Bold("Portfolio run failed") + " " + notifier.Code(at.UTC().Format(time.RFC3339)) +
		"\n" + notifier.Pre(detail)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// price keeps sub-cent precision for cheap assets.
func price(d decimal.Decimal) string {
	if d.LessThan(decimal.NewFromInt(1)) && !d.IsZero() {
		return "$" + d.String()
	}
	return money(d)
}
