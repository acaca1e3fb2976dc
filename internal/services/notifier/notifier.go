// Package notifier delivers human-readable reports and alerts to the operator.
package notifier

import (
	"context"

	"go.uber.org/zap"
)

// Notifier sends one message. Messages may carry the HTML subset produced
// by Bold, Code and Pre.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Nop drops messages. Used when no operator channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Attempt sends message and discards a delivery failure after logging it.
// Notifications are a best-effort side channel: a failed send never aborts
// the run or replaces the result being reported.
func Attempt(ctx context.Context, n Notifier, message string, l *zap.Logger) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, message); err != nil && l != nil {
		l.Warn("notification not delivered", zap.Error(err))
	}
}
