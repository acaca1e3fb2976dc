package domain

import "github.com/pkg/errors"

var (
	// ErrPriceUnavailable the pair has no usable price.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrSymbolNotFound the exchange does not list the pair.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoUsablePrecision the exchange metadata carries no usable quantity step.
	ErrNoUsablePrecision = errors.New("no usable precision")
	// ErrUnauthenticated the exchange rejected the credentials or signature.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrClockNotSynced a signed request was attempted before clock sync.
	ErrClockNotSynced = errors.New("clock not synced")
)
