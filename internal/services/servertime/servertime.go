// Package servertime adapts each exchange's time endpoint to clock.TimeSource.
package servertime

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
)

type mexcTimer interface {
	ServerTime(ctx context.Context) (int64, error)
}

// Mexc reads GET /api/v3/time.
type Mexc struct {
	client mexcTimer
}

func NewMexc(client mexcTimer) *Mexc {
	return &Mexc{client: client}
}

func (s *Mexc) ServerTime(ctx context.Context) (time.Time, error) {
	ms, err := s.client.ServerTime(ctx)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "mexc server time")
	}
	if ms <= 0 {
		return time.Time{}, errors.Errorf("mexc server time: invalid value %d", ms)
	}
	return time.UnixMilli(ms), nil
}

// Binance reads the Binance server time service.
type Binance struct {
	client *binance.Client
}

func NewBinance(client *binance.Client) *Binance {
	return &Binance{client: client}
}

func (s *Binance) ServerTime(ctx context.Context) (time.Time, error) {
	ms, err := s.client.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "binance server time")
	}
	return time.UnixMilli(ms), nil
}

// Bybit reads the v5 market time endpoint.
type Bybit struct {
	client *bybit.Client
}

func NewBybit(client *bybit.Client) *Bybit {
	return &Bybit{client: client}
}

func (s *Bybit) ServerTime(_ context.Context) (time.Time, error) {
	res, err := s.client.NewTimeService().GetServerTime()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "bybit server time")
	}

	nanos, err := strconv.ParseInt(res.Result.TimeNano, 10, 64)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "bybit server time: parse %q", res.Result.TimeNano)
	}
	return time.Unix(0, nanos), nil
}
