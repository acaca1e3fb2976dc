package clients

import (
	"net/http"
	"time"

	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient creates an authenticated Bybit client.
func NewBybitClient(apiKey, apiSecret, baseURL string, timeout time.Duration) *bybit.Client {
	client := bybit.NewClient().WithAuth(apiKey, apiSecret)
	if baseURL != "" {
		client = client.WithBaseURL(baseURL)
	}
	if timeout > 0 {
		client = client.WithHTTPClient(&http.Client{Timeout: timeout})
	}

	return client
}
