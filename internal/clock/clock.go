// Package clock keeps signed requests inside the exchange's timestamp window
// by applying a one-time offset against exchange server time.
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

// TimeSource reports the exchange's current time.
type TimeSource interface {
	ServerTime(ctx context.Context) (time.Time, error)
}

// Option configures a Clock.
type Option func(*Clock)

// WithLocalClock replaces time.Now, for tests.
func WithLocalClock(now func() time.Time) Option {
	return func(c *Clock) {
		c.local = now
	}
}

// Clock is synced once per process and read by every signed request after.
type Clock struct {
	src   TimeSource
	local func() time.Time

	once   sync.Once
	err    error
	synced bool
	offset time.Duration
}

// New creates an unsynced clock.
func New(src TimeSource, opts ...Option) *Clock {
	c := &Clock{src: src, local: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync fetches server time and stores offset = server - local.
// Only the first call talks to the exchange; later calls return its result.
func (c *Clock) Sync(ctx context.Context) error {
	c.once.Do(func() {
		server, err := c.src.ServerTime(ctx)
		if err != nil {
			c.err = errors.Wrap(err, "sync exchange server time")
			return
		}
		c.offset = server.Sub(c.local())
		c.synced = true
	})
	return c.err
}

// Offset is server minus local time at sync.
func (c *Clock) Offset() time.Duration {
	return c.offset
}

// Now returns local time adjusted by the offset.
func (c *Clock) Now() time.Time {
	return c.local().Add(c.offset)
}

// Timestamp is the synchronized time in Unix milliseconds, the form signed
// requests carry. It fails rather than fall back to unsynced local time.
func (c *Clock) Timestamp() (int64, error) {
	if !c.synced {
		return 0, domain.ErrClockNotSynced
	}
	return c.Now().UnixMilli(), nil
}
