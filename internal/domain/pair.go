// Package domain defines the data records shared by the tracker: pairs,
// holdings, portfolio snapshots, lot rules and sell orders.
package domain

import (
	"fmt"
	"strings"
)

// Pair cryptocurrency trading pair.
type Pair struct {
	// From base currency symbol (the held asset).
	From string
	// To quote currency symbol.
	To string
}

// NewPair builds the pair an asset is valued and sold against.
func NewPair(asset, quote string) Pair {
	return Pair{From: strings.ToUpper(asset), To: strings.ToUpper(quote)}
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the exchange symbol, e.g. AVAXUSDT.
func (p Pair) Symbol() string {
	return p.From + p.To
}
