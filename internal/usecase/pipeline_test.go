package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"MoneyPulse/internal/domain/models"
	drepo "MoneyPulse/internal/domain/repository"
	"MoneyPulse/internal/service/fred"
	"MoneyPulse/internal/service/yahoo"
	"MoneyPulse/internal/services/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// anchoredMonthly yields base*(1+g)^(months since anchor/12) on the first of each month.
func anchoredMonthly(base, g float64) func(string, time.Time, time.Time) []models.RawRow {
	return func(_ string, start, end time.Time) []models.RawRow {
		var out []models.RawRow
		t := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		if t.Before(start) {
			t = t.AddDate(0, 1, 0)
		}
		for ; !t.After(end); t = t.AddDate(0, 1, 0) {
			months := float64((t.Year()-anchor.Year())*12 + int(t.Month()) - int(anchor.Month()))
			out = append(out, models.RawRow{Date: t, Value: base * math.Pow(1+g, months/12)})
		}
		return out
	}
}

// macroFred serves CPI growing at cpiRate and M2 at m2Rate with flat velocity and output.
func macroFred(cpiRate, m2Rate float64, only ...string) *fakeAdapter {
	series := map[string]func(string, time.Time, time.Time) []models.RawRow{
		"CPIAUCSL": anchoredMonthly(250, cpiRate),
		"M2SL":     anchoredMonthly(15000, m2Rate),
		"M2V":      anchoredMonthly(1.2, 0),
		"GDPC1":    anchoredMonthly(20000, 0),
	}
	if len(only) > 0 {
		keep := map[string]bool{}
		for _, id := range only {
			keep[id] = true
		}
		for id := range series {
			if !keep[id] {
				delete(series, id)
			}
		}
	}
	return newFakeAdapter(fred.Name, func(id string, start, end time.Time) []models.RawRow {
		if f, ok := series[id]; ok {
			return f(id, start, end)
		}
		return nil
	})
}

// doublingPrice is flat before anchor and rises linearly to twice its level a year later.
func doublingPrice(_ string, start, end time.Time) []models.RawRow {
	var out []models.RawRow
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		v := 100.0
		if t.After(anchor) {
			v = 100 * (1 + t.Sub(anchor).Hours()/24/366)
		}
		out = append(out, models.RawRow{Date: t, Value: v})
	}
	return out
}

func newTestPipeline(t *testing.T, adapters []drepo.SourceAdapter, opts ...PipelineOption) *Pipeline {
	t.Helper()
	det, err := analytics.NewSignalDetector(analytics.DefaultSignalConfig())
	require.NoError(t, err)
	acq := NewAcquirer(adapters, WithFallback(nil), WithRetryBackoff(0))
	return NewPipeline(acq,
		analytics.NewQuantityTheoryEngine(analytics.WithAlignment(analytics.AlignForwardFill)),
		analytics.NewReturnsAnalyzer(0),
		det, opts...)
}

func TestGetRealReturnsDoublingAgainstFivePercentCPI(t *testing.T) {
	p := newTestPipeline(t, []drepo.SourceAdapter{
		macroFred(0.05, 0.06),
		newFakeAdapter(yahoo.Name, doublingPrice),
	})

	end := anchor.AddDate(1, 0, 0)
	rep, err := p.GetRealReturns(context.Background(), []string{"SPY"}, models.Period1Y, end)
	require.NoError(t, err)
	require.Contains(t, rep.Records, "SPY")

	r := rep.Records["SPY"]
	assert.Equal(t, "SPDR S&P 500 ETF", r.DisplayName)
	assert.InDelta(t, 1.0, r.NominalAnnualized.Float(), 1e-9)
	assert.InDelta(t, 0.05, r.CPICumulative.Float(), 1e-9)
	assert.InDelta(t, 2/1.05-1, r.CPIRealAnnualized.Float(), 1e-9)
	assert.InDelta(t, 2/1.06-1, r.QTRealAnnualized.Float(), 1e-9)
	assert.Equal(t, "CPI", r.BetterAgainst)
	assert.False(t, r.ScopedToOwnHistory)
	assert.Empty(t, rep.Warnings)
	require.Len(t, rep.RankByCPIReal, 1)
	assert.Equal(t, "SPY", rep.TopPerformers[0].Asset)
}

func TestGetRealReturnsIsIdempotent(t *testing.T) {
	p := newTestPipeline(t, []drepo.SourceAdapter{
		macroFred(0.03, 0.06),
		newFakeAdapter(yahoo.Name, dailyRows(50, 0.2)),
	})
	end := anchor.AddDate(2, 0, 0)
	a, err := p.GetRealReturns(context.Background(), []string{"GLD", "SPY"}, models.Period1Y, end)
	require.NoError(t, err)
	b, err := p.GetRealReturns(context.Background(), []string{"GLD", "SPY"}, models.Period1Y, end)
	require.NoError(t, err)
	assert.Equal(t, a.Records, b.Records)
	assert.Equal(t, a.RankByQTReal, b.RankByQTReal)
	assert.Equal(t, a.Correlations, b.Correlations)
}

func TestGetRealReturnsWithoutQTInputs(t *testing.T) {
	p := newTestPipeline(t, []drepo.SourceAdapter{
		macroFred(0.03, 0.06, "CPIAUCSL"),
		newFakeAdapter(yahoo.Name, dailyRows(100, 0.1)),
	})
	rep, err := p.GetRealReturns(context.Background(), []string{"SPY", "TLT"}, models.Period1Y, anchor.AddDate(1, 0, 0))
	require.NoError(t, err)
	r := rep.Records["SPY"]
	assert.True(t, r.CPIRealAnnualized.Defined())
	assert.False(t, r.QTRealAnnualized.Defined())
	assert.Empty(t, r.BetterAgainst)
	require.NotEmpty(t, rep.Warnings)
	assert.Contains(t, rep.Warnings[0], "quantity-theory")
}

func TestGetRealReturnsRequiresCPI(t *testing.T) {
	p := newTestPipeline(t, []drepo.SourceAdapter{newFakeAdapter(yahoo.Name, dailyRows(100, 0.1))})
	_, err := p.GetRealReturns(context.Background(), []string{"SPY"}, models.Period1Y, anchor.AddDate(1, 0, 0))
	require.Error(t, err)
	var missing *models.MissingSeriesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"CPI"}, missing.Names)
}

func TestGetRealReturnsUsesConfiguredDefaultPeriod(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.DefaultPeriod = models.Period3Y
	p := newTestPipeline(t, []drepo.SourceAdapter{
		macroFred(0.03, 0.06),
		newFakeAdapter(yahoo.Name, doublingPrice),
	}, WithPipelineConfig(cfg))

	rep, err := p.GetRealReturns(context.Background(), []string{"SPY"}, "", anchor.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, models.Period3Y, rep.Period)
}

func TestGetRealReturnsRejectsUnknownPeriod(t *testing.T) {
	p := newTestPipeline(t, nil)
	_, err := p.GetRealReturns(context.Background(), nil, models.Period("2Y"), time.Time{})
	assert.True(t, errors.Is(err, models.ErrInvalidRange))
}

func TestGetSignalMoneyOutpacingCPIPublishes(t *testing.T) {
	pub := &capturePublisher{}
	m := newRecordingMetrics()
	p := newTestPipeline(t, []drepo.SourceAdapter{macroFred(0.03, 0.10)},
		WithPublisher(pub), WithPipelineMetrics(m))

	rep, err := p.GetSignal(context.Background(), anchor.AddDate(3, 0, 0))
	require.NoError(t, err)
	require.NotNil(t, rep.Latest)
	latest := rep.Latest

	require.NotNil(t, latest.DivergenceScore)
	assert.Greater(t, *latest.DivergenceScore, 2.0)
	assert.GreaterOrEqual(t, int(latest.Level), int(models.AlertWatch))
	assert.Equal(t, models.IndicatorDivergence, latest.DominantDriver)
	assert.Contains(t, rep.Missing, "BTC-USD")
	assert.Nil(t, rep.Readings)

	require.Len(t, pub.readings, 1)
	assert.Equal(t, latest.Time, pub.readings[0].Time)
	assert.Equal(t, []string{latest.Level.String()}, m.signals)
}

func TestGetSignalWithoutDataIsNoData(t *testing.T) {
	pub := &capturePublisher{}
	p := newTestPipeline(t, nil, WithPublisher(pub))

	asOf := anchor.AddDate(1, 0, 0)
	rep, err := p.GetSignal(context.Background(), asOf)
	require.NoError(t, err)
	require.NotNil(t, rep.Latest)
	assert.True(t, rep.Latest.NoData)
	assert.Equal(t, models.AlertNone, rep.Latest.Level)
	assert.Equal(t, asOf, rep.Latest.Time)
	assert.Empty(t, pub.readings)
}

func TestGetSignalRangeStaysInRange(t *testing.T) {
	p := newTestPipeline(t, []drepo.SourceAdapter{macroFred(0.03, 0.06)})
	from, to := anchor.AddDate(1, 0, 0), anchor.AddDate(2, 0, 0)

	rep, err := p.GetSignalRange(context.Background(), from, to)
	require.NoError(t, err)
	require.NotEmpty(t, rep.Readings)
	for _, r := range rep.Readings {
		assert.False(t, r.Time.Before(from))
		assert.False(t, r.Time.After(to))
	}
	assert.Equal(t, rep.Readings[len(rep.Readings)-1], *rep.Latest)

	_, err = p.GetSignalRange(context.Background(), to, from)
	assert.True(t, errors.Is(err, models.ErrInvalidRange))
}

// gappyFred serves monthly CPI and velocity, quarterly output, and M2 with no prints in 2021.
func gappyFred() *fakeAdapter {
	monthly := map[string]func(string, time.Time, time.Time) []models.RawRow{
		"CPIAUCSL": anchoredMonthly(250, 0.03),
		"M2SL":     anchoredMonthly(15000, 0.08),
		"M2V":      anchoredMonthly(1.2, 0),
		"GDPC1":    anchoredMonthly(20000, 0.02),
	}
	gapFrom, gapTo := anchor.AddDate(1, 0, 0), anchor.AddDate(2, 0, 0)
	return newFakeAdapter(fred.Name, func(id string, start, end time.Time) []models.RawRow {
		f, ok := monthly[id]
		if !ok {
			return nil
		}
		var out []models.RawRow
		for _, r := range f(id, start, end) {
			switch {
			case id == "GDPC1" && (r.Date.Month()-1)%3 != 0:
				continue
			case id == "M2SL" && !r.Date.Before(gapFrom) && r.Date.Before(gapTo):
				continue
			}
			out = append(out, r)
		}
		return out
	})
}

func TestGetSignalRangeKeepsReadingsAcrossGaps(t *testing.T) {
	p := newTestPipeline(t, []drepo.SourceAdapter{gappyFred()})
	from, to := anchor, anchor.AddDate(3, 0, 0)

	rep, err := p.GetSignalRange(context.Background(), from, to)
	require.NoError(t, err)
	require.NotEmpty(t, rep.Readings)

	times := make(map[time.Time]models.SignalReading, len(rep.Readings))
	for _, r := range rep.Readings {
		times[r.Time] = r
	}
	for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
		_, ok := times[m]
		assert.True(t, ok, "no reading at %s", m)
	}

	// Money-supply inputs are stale from mid 2021 until prints resume.
	for m := anchor.AddDate(1, 5, 0); m.Before(anchor.AddDate(2, 0, 0)); m = m.AddDate(0, 1, 0) {
		r := times[m]
		assert.True(t, r.NoData, "reading at %s", m)
		assert.Equal(t, models.AlertNone, r.Level)
	}
	assert.False(t, times[anchor.AddDate(0, 10, 0)].NoData)
	assert.Equal(t, to, rep.Latest.Time)

	// QT inflation follows the quarterly output cadence and never bridges the M2 gap.
	qt, warn := p.priceLevel(mustFetch(t, p, from.AddDate(-1, 0, 0), to))
	require.Empty(t, warn)
	assert.Equal(t, 4.0, qt.Frequency)
	infl := p.engine.ImpliedInflation(qt)
	_, ok := infl.At(anchor.AddDate(2, 0, 0))
	assert.False(t, ok)
	v, ok := infl.At(anchor.AddDate(2, 3, 0))
	require.True(t, ok)
	assert.InDelta(t, 1.08/1.02-1, v, 1e-9)
}

func mustFetch(t *testing.T, p *Pipeline, start, end time.Time) *models.Dataset {
	t.Helper()
	ds, err := p.fetcher.Fetch(context.Background(), MacroSeries, start, end)
	require.NoError(t, err)
	return ds
}

func TestGetDataset(t *testing.T) {
	p := newTestPipeline(t, []drepo.SourceAdapter{macroFred(0.03, 0.06)})
	ds, err := p.GetDataset(context.Background(), []string{"CPI", "M2", "CPI"}, anchor, anchor.AddDate(0, 6, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"CPI", "M2"}, ds.Names())
	cpi, ok := ds.Series("CPI")
	require.True(t, ok)
	assert.Equal(t, 7, cpi.Len())

	_, err = p.GetDataset(context.Background(), nil, time.Time{}, time.Time{})
	assert.Error(t, err)
}
