package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"MoneyPulse/internal/domain/models"
	xhttp "MoneyPulse/pkg/http"
)

// HTTPSourceBase is the shared foundation of the provider adapters.
// It centralises client construction and JSON GET handling and maps every transport,
// status or decoding failure onto models.ErrProviderUnavailable.
type HTTPSourceBase struct {
	name    string
	baseURL string
	client  *xhttp.Client
}

// NewHTTPSourceBase builds a base for provider name talking to baseURL.
func NewHTTPSourceBase(name, baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *HTTPSourceBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &HTTPSourceBase{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(opts...),
	}
}

func (b *HTTPSourceBase) Name() string { return b.name }

func (b *HTTPSourceBase) BaseURL() string { return b.baseURL }

// GetJSON issues a GET for path under baseURL and decodes the JSON answer into dest.
func (b *HTTPSourceBase) GetJSON(ctx context.Context, path string, query url.Values, headers map[string]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("%s: client not initialized: %w", b.name, models.ErrProviderUnavailable)
	}
	if err := b.client.GetJSON(ctx, b.baseURL+path, query, headers, dest); err != nil {
		return b.Wrap(fmt.Sprintf("get %s", path), err)
	}
	return nil
}

// Wrap annotates err with the provider and marks it as ErrProviderUnavailable.
func (b *HTTPSourceBase) Wrap(op string, err error) error {
	if errors.Is(err, models.ErrProviderUnavailable) {
		return err
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.Code == 429 {
		return fmt.Errorf("%s %s: rate limited (retry after %s): %w: %w", b.name, op, se.RetryAfter, models.ErrProviderUnavailable, err)
	}
	return fmt.Errorf("%s %s: %w: %w", b.name, op, models.ErrProviderUnavailable, err)
}

// EmptyPayload builds the error for an answer without usable rows.
func (b *HTTPSourceBase) EmptyPayload(identifier string) error {
	return fmt.Errorf("%s %s: %w: %w", b.name, identifier, models.ErrProviderUnavailable, models.ErrEmptyPayload)
}
