package domain

import "github.com/shopspring/decimal"

// SellOrder is a market sell request. It is not stored: orders are
// fire-and-log and fills are never polled.
type SellOrder struct {
	Pair     Pair
	Quantity decimal.Decimal
}

// OrderResult is what the exchange acknowledged for a submitted order.
type OrderResult struct {
	OrderID       string
	ClientOrderID string
	Status        string
	// Quantity the exchange acknowledged; fills are not tracked.
	Quantity decimal.Decimal
}
