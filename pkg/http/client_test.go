package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSONSendsQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "CPIAUCSL", r.URL.Query().Get("series_id"))
		assert.Equal(t, "json", r.URL.Query().Get("file_type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "moneypulse-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "k", r.Header.Get("X-Key"))
		_, _ = w.Write([]byte(`{"value": 1.5}`))
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("moneypulse-test"), WithHeader("X-Key", "k"))
	var out struct {
		Value float64 `json:"value"`
	}
	err := c.GetJSON(context.Background(), srv.URL+"/obs?file_type=json", url.Values{"series_id": {"CPIAUCSL"}}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, 1.5, out.Value)
}

func TestGetJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down\n"))
	}))
	defer srv.Close()

	err := NewClient().GetJSON(context.Background(), srv.URL, nil, nil, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "slow down", se.Body)
	assert.Equal(t, 30*time.Second, se.RetryAfter)
	assert.True(t, se.Temporary())
}

func TestGetJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := NewClient().GetJSON(context.Background(), srv.URL, nil, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode json")
}

func TestGetJSONHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := NewClient().GetJSON(ctx, srv.URL, nil, nil, nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, retryAfter("5"))
	assert.Equal(t, time.Duration(0), retryAfter(""))
	assert.Equal(t, time.Duration(0), retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
