package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"MoneyPulse/internal/domain/models"
	"MoneyPulse/internal/service/source"
	xhttp "MoneyPulse/pkg/http"
)

const (
	Name           = "yahoo"
	DefaultBaseURL = "https://query1.finance.yahoo.com"
)

// Client fetches daily closing prices from the Yahoo chart API.
type Client struct {
	*source.HTTPSourceBase
	userAgent string
}

type Option func(*options)

type options struct {
	baseURL    string
	timeout    time.Duration
	userAgent  string
	clientOpts []xhttp.ClientOption
}

func WithBaseURL(u string) Option { return func(o *options) { o.baseURL = u } }

func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

func WithUserAgent(ua string) Option { return func(o *options) { o.userAgent = ua } }

func WithHTTPOptions(opts ...xhttp.ClientOption) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

func NewClient(opts ...Option) *Client {
	o := &options{baseURL: DefaultBaseURL, timeout: 10 * time.Second, userAgent: "Mozilla/5.0 (compatible; moneypulse/1.0)"}
	for _, opt := range opts {
		opt(o)
	}
	return &Client{
		HTTPSourceBase: source.NewHTTPSourceBase(Name, o.baseURL, o.timeout, o.clientOpts...),
		userAgent:      o.userAgent,
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchSeries returns daily (adjusted when available) closes of symbol within [start, end].
// Null closes are skipped.
func (c *Client) FetchSeries(ctx context.Context, symbol string, start, end time.Time) ([]models.RawRow, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")

	var resp chartResponse
	if err := c.GetJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), q, c.headers(), &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, c.Wrap(symbol, fmt.Errorf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description))
	}
	if len(resp.Chart.Result) == 0 {
		return nil, c.EmptyPayload(symbol)
	}

	res := resp.Chart.Result[0]
	closes := pickCloses(res)
	rows := make([]models.RawRow, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		day := dayOf(time.Unix(ts, 0))
		if day.Before(dayOf(start)) || day.After(dayOf(end)) {
			continue
		}
		rows = append(rows, models.RawRow{Date: day, Value: *closes[i]})
	}
	if len(rows) == 0 {
		return nil, c.EmptyPayload(symbol)
	}
	return rows, nil
}

// Ping requests a one-day chart of a liquid symbol.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("range", "1d")
	q.Set("interval", "1d")
	var resp chartResponse
	return c.GetJSON(ctx, "/v8/finance/chart/SPY", q, c.headers(), &resp)
}

func (c *Client) headers() map[string]string {
	return map[string]string{"User-Agent": c.userAgent}
}

func pickCloses(r chartResult) []*float64 {
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) == len(r.Timestamp) {
		return r.Indicators.AdjClose[0].AdjClose
	}
	if len(r.Indicators.Quote) > 0 {
		return r.Indicators.Quote[0].Close
	}
	return nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
