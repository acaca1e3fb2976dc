package trim

import (
	"fmt"

	"github.com/dkent600/mexc-portfolio-tracker/internal/services/notifier"
)

// Message renders the decision for the operator channel.
func (d Decision) Message() string {
	pair := d.Holding.Pair.Symbol()
	qty := d.Quantity.String()
	excess := "$" + d.Excess.StringFixed(2)

	switch d.Status {
	case StatusSold:
		msg := fmt.Sprintf("%s\nSold %s %s, excess %s over base $%s",
			notifier.Bold("Trimmed "+d.Holding.Asset), notifier.Code(qty), notifier.Code(pair),
			notifier.Escape(excess), d.Base.StringFixed(2))
		if d.Order != nil && d.Order.OrderID != "" {
			msg += "\nOrder " + notifier.Code(d.Order.OrderID)
		}
		return msg
	case StatusDryRun:
		return fmt.Sprintf("%s\nWould sell %s %s, excess %s over base $%s",
			notifier.Bold("Dry run: "+d.Holding.Asset), notifier.Code(qty), notifier.Code(pair),
			notifier.Escape(excess), d.Base.StringFixed(2))
	case StatusSellFailed:
		return fmt.Sprintf("%s\nSelling %s %s failed:\n%s",
			notifier.Bold("Trim failed: "+d.Holding.Asset), notifier.Code(qty), notifier.Code(pair),
			notifier.Pre(errText(d.Err)))
	case StatusLotRuleFailed:
		return fmt.Sprintf("%s\nNo usable lot rule for %s, holding skipped:\n%s",
			notifier.Bold("Trim skipped: "+d.Holding.Asset), notifier.Code(pair),
			notifier.Pre(errText(d.Err)))
	case StatusBelowStep:
		return fmt.Sprintf("%s: excess %s is below one lot step (%s)", d.Holding.Asset, excess, d.Rule.StepSize.String())
	case StatusBelowMinQty:
		return fmt.Sprintf("%s: %s is below the minimum order size %s", d.Holding.Asset, qty, d.Rule.MinQty.String())
	default:
		return fmt.Sprintf("%s: at or under base", d.Holding.Asset)
	}
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
