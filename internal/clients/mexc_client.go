package clients

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

const (
	// MexcBaseURL is the MEXC spot REST endpoint.
	MexcBaseURL = "https://api.mexc.com"
	// MexcAPIKeyHeader carries the API key on signed requests.
	MexcAPIKeyHeader = "X-MEXC-APIKEY"

	defaultMexcTimeout = 30 * time.Second
	defaultMexcRPS     = 10
	maxErrorBody       = 4096
)

// auth failures: bad key format, bad signature, timestamp outside recvWindow,
// IP not whitelisted, key info invalid, and the binance-compatible codes.
var mexcAuthCodes = map[int]struct{}{
	700001: {}, 700002: {}, 700003: {}, 700006: {}, 10072: {},
	-2014: {}, -2015: {},
}

const mexcInvalidSymbolCode = -1121

// APIError is an error payload returned by the exchange.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("<APIError> http=%d code=%d, msg=%s", e.HTTPStatus, e.Code, e.Message)
}

// DecodeError is returned when a successful response body is not the
// expected JSON, e.g. an HTML error page from a proxy or a truncated body.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %s response: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets callers match API errors against the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrUnauthenticated:
		if e.HTTPStatus == http.StatusUnauthorized || e.HTTPStatus == http.StatusForbidden {
			return true
		}
		_, ok := mexcAuthCodes[e.Code]
		return ok
	case domain.ErrSymbolNotFound:
		return e.Code == mexcInvalidSymbolCode
	}
	return false
}

// MexcOption configures a MexcClient.
type MexcOption func(*MexcClient)

// WithMexcBaseURL points the client at another host, e.g. a test server.
func WithMexcBaseURL(u string) MexcOption {
	return func(c *MexcClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithMexcTimeout sets the per-request timeout.
func WithMexcTimeout(d time.Duration) MexcOption {
	return func(c *MexcClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMexcRateLimit caps outgoing requests per second.
func WithMexcRateLimit(rps float64) MexcOption {
	return func(c *MexcClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// MexcClient is a minimal MEXC spot v3 REST client. Signed requests carry
// the query string exactly as signed; parameters are never re-sorted.
type MexcClient struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewMexcClient creates a MEXC client.
func NewMexcClient(apiKey, secretKey string, opts ...MexcOption) *MexcClient {
	c := &MexcClient{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    MexcBaseURL,
		httpClient: &http.Client{Timeout: defaultMexcTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultMexcRPS), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sign returns the lower-case hex HMAC-SHA256 of query under secret.
func Sign(secret, query string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

type param struct {
	key   string
	value string
}

// encodeParams keeps the given order.
func encodeParams(params []param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(p.key)+"="+url.QueryEscape(p.value))
	}
	return strings.Join(parts, "&")
}

// signedQuery appends timestamp to params and returns the query with its
// signature appended as &signature=<hex>.
func (c *MexcClient) signedQuery(params []param, timestamp int64) string {
	params = append(params, param{"timestamp", strconv.FormatInt(timestamp, 10)})
	q := encodeParams(params)
	return q + "&signature=" + Sign(c.secretKey, q)
}

// MexcServerTime is the /api/v3/time payload.
type MexcServerTime struct {
	ServerTime int64 `json:"serverTime"`
}

// MexcTickerPrice is the /api/v3/ticker/price payload.
type MexcTickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// MexcBalance is one account balance line.
type MexcBalance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// MexcAccount is the /api/v3/account payload.
type MexcAccount struct {
	CanTrade bool          `json:"canTrade"`
	Balances []MexcBalance `json:"balances"`
}

// MexcFilter is a trading-rule filter. Only LOT_SIZE fields are decoded.
type MexcFilter struct {
	FilterType string `json:"filterType"`
	StepSize   string `json:"stepSize,omitempty"`
	MinQty     string `json:"minQty,omitempty"`
}

// MexcSymbol is a symbol entry of /api/v3/exchangeInfo. Precision fields are
// kept raw because MEXC has served them both as strings and as numbers.
type MexcSymbol struct {
	Symbol             string          `json:"symbol"`
	Status             string          `json:"status"`
	BaseAsset          string          `json:"baseAsset"`
	QuoteAsset         string          `json:"quoteAsset"`
	BaseSizePrecision  json.RawMessage `json:"baseSizePrecision"`
	BaseAssetPrecision json.RawMessage `json:"baseAssetPrecision"`
	Filters            []MexcFilter    `json:"filters"`
}

// MexcExchangeInfo is the /api/v3/exchangeInfo payload.
type MexcExchangeInfo struct {
	Symbols []MexcSymbol `json:"symbols"`
}

// MexcOrder is the /api/v3/order acknowledgement.
type MexcOrder struct {
	Symbol       string     `json:"symbol"`
	OrderID      flexString `json:"orderId"`
	Price        string     `json:"price"`
	OrigQty      string     `json:"origQty"`
	Type         string     `json:"type"`
	Side         string     `json:"side"`
	TransactTime int64      `json:"transactTime"`
}

// ServerTime calls GET /api/v3/time.
func (c *MexcClient) ServerTime(ctx context.Context) (int64, error) {
	var out MexcServerTime
	if err := c.do(ctx, http.MethodGet, "/api/v3/time", "", false, &out); err != nil {
		return 0, err
	}
	return out.ServerTime, nil
}

// TickerPrice calls GET /api/v3/ticker/price?symbol=<symbol>.
func (c *MexcClient) TickerPrice(ctx context.Context, symbol string) (*MexcTickerPrice, error) {
	var out MexcTickerPrice
	query := encodeParams([]param{{"symbol", symbol}})
	if err := c.do(ctx, http.MethodGet, "/api/v3/ticker/price", query, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Account calls the signed GET /api/v3/account?timestamp=<ts>&signature=<hex>.
func (c *MexcClient) Account(ctx context.Context, timestamp int64) (*MexcAccount, error) {
	var out MexcAccount
	if err := c.do(ctx, http.MethodGet, "/api/v3/account", c.signedQuery(nil, timestamp), true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangeInfo calls GET /api/v3/exchangeInfo?symbol=<symbol>.
func (c *MexcClient) ExchangeInfo(ctx context.Context, symbol string) (*MexcExchangeInfo, error) {
	var out MexcExchangeInfo
	query := encodeParams([]param{{"symbol", symbol}})
	if err := c.do(ctx, http.MethodGet, "/api/v3/exchangeInfo", query, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarketSell places a market sell with the signed query
// symbol, side=SELL, type=MARKET, quantity, timestamp, signature.
func (c *MexcClient) MarketSell(ctx context.Context, symbol, quantity string, timestamp int64) (*MexcOrder, error) {
	query := c.signedQuery([]param{
		{"symbol", symbol},
		{"side", "SELL"},
		{"type", "MARKET"},
		{"quantity", quantity},
	}, timestamp)

	var out MexcOrder
	if err := c.do(ctx, http.MethodPost, "/api/v3/order", query, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// flexString decodes a JSON string or number into its text form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

func (c *MexcClient) do(ctx context.Context, method, path, query string, signed bool, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "wait for rate limiter")
	}

	endpoint := c.baseURL + path
	if query != "" {
		endpoint += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "build %s %s request", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	if signed {
		req.Header.Set(MexcAPIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s %s response", method, path)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Message == "" {
			msg := string(body)
			if len(msg) > maxErrorBody {
				msg = msg[:maxErrorBody]
			}
			apiErr.Message = strings.TrimSpace(msg)
		}
		return errors.Wrapf(apiErr, "%s %s", method, path)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Method: method, Path: path, Err: err}
	}
	return nil
}
