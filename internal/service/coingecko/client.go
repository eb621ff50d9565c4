package coingecko

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MoneyPulse/internal/domain/models"
	"MoneyPulse/internal/service/source"
	xhttp "MoneyPulse/pkg/http"
)

const (
	Name           = "coingecko"
	DefaultBaseURL = "https://api.coingecko.com"
)

// coinIDs maps ticker-style symbols to CoinGecko coin ids.
var coinIDs = map[string]string{
	"BTC-USD": "bitcoin",
	"ETH-USD": "ethereum",
	"SOL-USD": "solana",
}

// CoinID resolves a symbol to a CoinGecko coin id. Unknown symbols are passed through lower-cased.
func CoinID(symbol string) string {
	if id, ok := coinIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// IsCrypto reports whether symbol is a known crypto asset.
func IsCrypto(symbol string) bool {
	_, ok := coinIDs[strings.ToUpper(symbol)]
	return ok
}

// Client reads USD market prices from CoinGecko.
type Client struct {
	*source.HTTPSourceBase
	apiKey string
}

func NewClient(apiKey, baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		HTTPSourceBase: source.NewHTTPSourceBase(Name, baseURL, timeout, opts...),
		apiKey:         apiKey,
	}
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// FetchSeries returns one price per UTC day (the last quote of the day) between start and end.
func (c *Client) FetchSeries(ctx context.Context, symbol string, start, end time.Time) ([]models.RawRow, error) {
	id := CoinID(symbol)
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("from", strconv.FormatInt(start.Unix(), 10))
	q.Set("to", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))

	var resp marketChartResponse
	if err := c.GetJSON(ctx, "/api/v3/coins/"+url.PathEscape(id)+"/market_chart/range", q, c.headers(), &resp); err != nil {
		return nil, err
	}

	rows := make([]models.RawRow, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		t := time.UnixMilli(int64(p[0])).UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(rows); n > 0 && rows[n-1].Date.Equal(day) {
			rows[n-1].Value = p[1]
			continue
		}
		rows = append(rows, models.RawRow{Date: day, Value: p[1]})
	}
	if len(rows) == 0 {
		return nil, c.EmptyPayload(symbol)
	}
	return rows, nil
}

func (c *Client) Ping(ctx context.Context) error {
	var resp map[string]interface{}
	return c.GetJSON(ctx, "/api/v3/ping", nil, c.headers(), &resp)
}

func (c *Client) headers() map[string]string {
	h := map[string]string{}
	if c.apiKey != "" {
		h["x-cg-demo-api-key"] = c.apiKey
	}
	return h
}
