package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	models "MoneyPulse/internal/domain/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalytics struct {
	err error

	names  []string
	assets []string
	period models.Period
	start  time.Time
	end    time.Time
}

func (f *fakeAnalytics) GetDataset(_ context.Context, names []string, start, end time.Time) (*models.Dataset, error) {
	f.names, f.start, f.end = names, start, end
	if f.err != nil {
		return nil, f.err
	}
	ds := models.NewDataset()
	ds.Put(models.NewTimeSeries("CPI", []models.Point{{Time: start, Value: 250}}), models.SeriesCatalogEntry{Provider: "fred"})
	return ds, nil
}

func (f *fakeAnalytics) GetRealReturns(_ context.Context, assets []string, period models.Period, end time.Time) (*models.ReturnsReport, error) {
	f.assets, f.period, f.end = assets, period, end
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReturnsReport{
		Period: period,
		Records: map[string]models.ReturnsRecord{
			"SPY": {Asset: "SPY", NominalAnnualized: 0.1, CPIRealAnnualized: 0.07, QTRealAnnualized: models.Undefined()},
		},
	}, nil
}

func (f *fakeAnalytics) GetSignal(_ context.Context, asOf time.Time) (*models.SignalReport, error) {
	f.end = asOf
	if f.err != nil {
		return nil, f.err
	}
	r := models.SignalReading{Time: asOf, Level: models.AlertWatch, Composite: 0.7}
	return &models.SignalReport{End: asOf, Latest: &r}, nil
}

func (f *fakeAnalytics) GetSignalRange(_ context.Context, start, end time.Time) (*models.SignalReport, error) {
	f.start, f.end = start, end
	if f.err != nil {
		return nil, f.err
	}
	return &models.SignalReport{Start: start, End: end}, nil
}

type fakeProber map[string]error

func (p fakeProber) Probe(context.Context) map[string]error { return p }

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func serve(t *testing.T, svc Analytics, prober Prober, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	NewAnalyticsEchoHandler(nil, svc, prober).RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestReturnsDefaultsAndDecodes(t *testing.T) {
	svc := &fakeAnalytics{}
	rec, env := serve(t, svc, nil, "/api/returns?assets=SPY,GLD,SPY&end=2024-06-30")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"SPY", "GLD"}, svc.assets)
	assert.Equal(t, models.Period(""), svc.period)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), svc.end)

	var rep map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	spy := rep["records"].(map[string]interface{})["SPY"].(map[string]interface{})
	assert.Equal(t, 0.07, spy["cpi_real_annualized"])
	assert.Nil(t, spy["qt_real_annualized"])
}

func TestReturnsPeriodIsCaseInsensitive(t *testing.T) {
	svc := &fakeAnalytics{}
	rec, _ := serve(t, svc, nil, "/api/returns?period=10y")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Period10Y, svc.period)
}

func TestReturnsValidation(t *testing.T) {
	for _, target := range []string{
		"/api/returns?period=2Y",
		"/api/returns?end=30-06-2024",
		"/api/returns?assets=SPY,GL%24D",
		"/api/dataset?series=%20,%20",
	} {
		rec, env := serve(t, &fakeAnalytics{}, nil, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, http.StatusBadRequest, env.Status)
	}
}

func TestMissingSeriesIsUnprocessable(t *testing.T) {
	svc := &fakeAnalytics{err: &models.MissingSeriesError{Names: []string{"CPI"}}}
	rec, env := serve(t, svc, nil, "/api/returns?period=1Y")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errs []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNPROCESSABLE", errs[0]["code"])
	assert.Equal(t, []interface{}{"CPI"}, errs[0]["params"].(map[string]interface{})["missing"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{models.ErrInvalidRange, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec, _ := serve(t, &fakeAnalytics{err: tt.err}, nil, "/api/signal/range")
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
	}
}

func TestDatasetRequiresSeries(t *testing.T) {
	rec, _ := serve(t, &fakeAnalytics{}, nil, "/api/dataset")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc := &fakeAnalytics{}
	rec, env := serve(t, svc, nil, "/api/dataset?series=CPI,M2&start=2020-01-01")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"CPI", "M2"}, svc.names)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), svc.start)
	assert.True(t, svc.end.IsZero())
	assert.Contains(t, string(env.Data), `"catalog"`)
}

func TestSignal(t *testing.T) {
	svc := &fakeAnalytics{}
	rec, env := serve(t, svc, nil, "/api/signal?as_of=2023-03-31")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), svc.end)
	assert.Contains(t, string(env.Data), `"level":"WATCH"`)
}

func TestHealth(t *testing.T) {
	rec, env := serve(t, &fakeAnalytics{}, fakeProber{"fred": nil, "yahoo": errors.New("timeout")}, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var h healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "ok", h.Providers["fred"])
	assert.Equal(t, "timeout", h.Providers["yahoo"])

	rec, _ = serve(t, &fakeAnalytics{}, fakeProber{"fred": errors.New("x")}, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = serve(t, &fakeAnalytics{}, nil, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
