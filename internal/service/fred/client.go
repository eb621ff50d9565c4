package fred

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"MoneyPulse/internal/domain/models"
	"MoneyPulse/internal/service/source"
	xhttp "MoneyPulse/pkg/http"
	"MoneyPulse/pkg/util"
)

const (
	Name           = "fred"
	DefaultBaseURL = "https://api.stlouisfed.org"

	// missingValue marks an observation FRED has no value for.
	missingValue = "."
)

// Client reads macroeconomic series observations from FRED.
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

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FetchSeries returns the observations of seriesID between start and end.
func (c *Client) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]models.RawRow, error) {
	if c.apiKey == "" {
		return nil, c.Wrap(seriesID, fmt.Errorf("api key not configured"))
	}
	q := c.query()
	q.Set("series_id", seriesID)
	if !start.IsZero() {
		q.Set("observation_start", util.FormatDate(start))
	}
	if !end.IsZero() {
		q.Set("observation_end", util.FormatDate(end))
	}

	var resp observationsResponse
	if err := c.GetJSON(ctx, "/fred/series/observations", q, nil, &resp); err != nil {
		return nil, err
	}

	rows := make([]models.RawRow, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		if o.Value == missingValue || o.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse(util.DateLayout, o.Date)
		if err != nil {
			continue
		}
		rows = append(rows, models.RawRow{Date: d, Value: v})
	}
	if len(rows) == 0 {
		return nil, c.EmptyPayload(seriesID)
	}
	return rows, nil
}

// Ping looks up the metadata of a well-known series.
func (c *Client) Ping(ctx context.Context) error {
	if c.apiKey == "" {
		return c.Wrap("ping", fmt.Errorf("api key not configured"))
	}
	q := c.query()
	q.Set("series_id", "CPIAUCSL")
	var resp map[string]interface{}
	return c.GetJSON(ctx, "/fred/series", q, nil, &resp)
}

func (c *Client) query() url.Values {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	return q
}
