package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AlertDirection selects which side of the threshold raises the alert.
type AlertDirection string

const (
	// AlertAbove triggers when total >= threshold.
	AlertAbove AlertDirection = "above"
	// AlertBelow triggers when total < threshold.
	AlertBelow AlertDirection = "below"
)

// ParseAlertDirection parses a config value. Empty means AlertAbove.
func ParseAlertDirection(s string) (AlertDirection, error) {
	switch AlertDirection(strings.ToLower(strings.TrimSpace(s))) {
	case "", AlertAbove:
		return AlertAbove, nil
	case AlertBelow:
		return AlertBelow, nil
	default:
		return "", fmt.Errorf("unknown alert direction %q (want above or below)", s)
	}
}

// Triggered compares total against threshold in this direction.
func (d AlertDirection) Triggered(total, threshold decimal.Decimal) bool {
	if d == AlertBelow {
		return total.LessThan(threshold)
	}
	return total.GreaterThanOrEqual(threshold)
}

func (d AlertDirection) String() string {
	return string(d)
}
