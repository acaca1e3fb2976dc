package servertime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkent600/mexc-portfolio-tracker/internal/clients"
)

type fakeMexc struct {
	ms  int64
	err error
}

func (f fakeMexc) ServerTime(ctx context.Context) (int64, error) {
	return f.ms, f.err
}

func TestMexc_ServerTime(t *testing.T) {
	got, err := NewMexc(fakeMexc{ms: 1767268800123}).ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1767268800123), got.UnixMilli())

	_, err = NewMexc(fakeMexc{err: errors.New("timeout")}).ServerTime(context.Background())
	assert.Error(t, err)

	_, err = NewMexc(fakeMexc{}).ServerTime(context.Background())
	assert.Error(t, err)
}

func TestBinance_ServerTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/time", r.URL.Path)
		_, _ = w.Write([]byte(`{"serverTime":1767268800456}`))
	}))
	defer srv.Close()

	src := NewBinance(clients.NewBinanceClient("", "", srv.URL, time.Second))
	got, err := src.ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1767268800456), got.UnixMilli())
}
