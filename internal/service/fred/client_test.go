package fred

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MoneyPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSeriesParsesObservations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fred/series/observations", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "M2SL", q.Get("series_id"))
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("file_type"))
		assert.Equal(t, "2020-01-01", q.Get("observation_start"))
		assert.Equal(t, "2020-03-31", q.Get("observation_end"))
		_, _ = w.Write([]byte(`{"observations":[
{"date":"2020-01-01","value":"15400.1"},
{"date":"2020-02-01","value":"."},
{"date":"2020-03-01","value":"16000.5"}]}`))
	}))
	defer srv.Close()

	c := NewClient("secret", srv.URL, time.Second)
	rows, err := c.FetchSeries(context.Background(), "M2SL",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), rows[1].Date)
	assert.Equal(t, 16000.5, rows[1].Value)
}

func TestFetchSeriesWithoutKey(t *testing.T) {
	_, err := NewClient("", "http://127.0.0.1:1", time.Second).FetchSeries(context.Background(), "CPIAUCSL", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrProviderUnavailable))
}

func TestFetchSeriesAllMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"observations":[{"date":"2020-01-01","value":"."}]}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", srv.URL, time.Second).FetchSeries(context.Background(), "GDPC1", time.Time{}, time.Time{})
	assert.True(t, errors.Is(err, models.ErrEmptyPayload))
}

func TestFetchSeriesBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":400,"error_message":"Bad Request. The series does not exist."}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", srv.URL, time.Second).FetchSeries(context.Background(), "NOPE", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrProviderUnavailable))
	assert.Contains(t, err.Error(), "does not exist")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fred/series", r.URL.Path)
		_, _ = w.Write([]byte(`{"seriess":[{"id":"CPIAUCSL"}]}`))
	}))
	defer srv.Close()
	assert.NoError(t, NewClient("k", srv.URL, time.Second).Ping(context.Background()))
}
