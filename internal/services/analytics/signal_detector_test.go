package analytics

import (
	"math"
	"testing"
	"time"

	"MoneyPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetector(t *testing.T) *SignalDetector {
	t.Helper()
	d, err := NewSignalDetector(DefaultSignalConfig())
	require.NoError(t, err)
	return d
}

func TestSignalConfigValidate(t *testing.T) {
	require.NoError(t, DefaultSignalConfig().Validate())

	bad := DefaultSignalConfig()
	bad.ElevatedThreshold = 0.4
	assert.Error(t, bad.Validate())

	bad = DefaultSignalConfig()
	bad.DivergenceWeight, bad.MomentumWeight, bad.AccelerationWeight = 0, 0, 0
	assert.Error(t, bad.Validate())

	_, err := NewSignalDetector(bad)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	d := newDetector(t)
	tests := []struct {
		composite float64
		want      models.AlertLevel
	}{
		{-2.5, models.AlertNone},
		{0.49, models.AlertNone},
		{0.5, models.AlertWatch},
		{0.99, models.AlertWatch},
		{1.0, models.AlertElevated},
		{2.0, models.AlertHigh},
		{3.0, models.AlertHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.Classify(tt.composite), "composite %v", tt.composite)
	}
}

func TestReadingRenormalisesOverAvailableIndicators(t *testing.T) {
	d := newDetector(t)
	at := t0

	r := d.Reading(at, map[models.Indicator]float64{models.IndicatorDivergence: 1.2})
	assert.InDelta(t, 1.2, r.Composite, 1e-12)
	assert.Equal(t, models.AlertElevated, r.Level)
	assert.Equal(t, models.IndicatorDivergence, r.DominantDriver)
	assert.Nil(t, r.MomentumScore)
	assert.Equal(t, "elevated monetary debasement risk, driven by inflation divergence", r.Recommendation)

	r = d.Reading(at, map[models.Indicator]float64{
		models.IndicatorDivergence:   10,
		models.IndicatorMomentum:     0,
		models.IndicatorAcceleration: 0,
	})
	// each indicator is clipped before weighting
	assert.InDelta(t, 1.0, r.Composite, 1e-12)
	require.NotNil(t, r.DivergenceScore)
	assert.Equal(t, 3.0, *r.DivergenceScore)
}

func TestReadingNoData(t *testing.T) {
	r := newDetector(t).Reading(t0, nil)
	assert.True(t, r.NoData)
	assert.Equal(t, models.AlertNone, r.Level)
	assert.Equal(t, 0.0, r.Composite)
	assert.NotEmpty(t, r.Recommendation)
}

func TestRecommendIsDeterministic(t *testing.T) {
	d := newDetector(t)
	assert.Equal(t, "no significant monetary debasement signal", d.Recommend(models.AlertNone, 0.1, models.IndicatorMomentum, false))
	assert.Equal(t, "disinflationary conditions, driven by hedge-asset momentum", d.Recommend(models.AlertNone, -1, models.IndicatorMomentum, false))
	assert.Equal(t, "high monetary debasement risk, driven by money-supply acceleration", d.Recommend(models.AlertHigh, 2.5, models.IndicatorAcceleration, false))
}

func TestDetectMoneyGrowthOutpacingCPI(t *testing.T) {
	engine := NewQuantityTheoryEngine()
	m := monthlySeries("M2", 37, 15000, 0.10)
	v := monthlySeries("VELOCITY", 37, 1.2, 0)
	q := monthlySeries("GDP", 37, 20000, 0)
	cpi := monthlySeries("CPI", 37, 250, 0.03)

	p, err := engine.ComputePriceLevel(m, v, q)
	require.NoError(t, err)
	qtInfl := engine.ImpliedInflation(p)
	cpiInfl := engine.ImpliedInflation(cpi)

	readings := newDetector(t).Detect(cpiInfl, qtInfl, models.TimeSeries{}, m, time.Time{}, time.Time{})
	require.NotEmpty(t, readings)

	last := readings[len(readings)-1]
	require.NotNil(t, last.DivergenceScore)
	assert.Greater(t, *last.DivergenceScore, 2.0)
	assert.GreaterOrEqual(t, int(last.Level), int(models.AlertWatch))
	assert.Nil(t, last.MomentumScore)
	assert.Equal(t, models.IndicatorDivergence, last.DominantDriver)
	assert.False(t, last.NoData)
}

func TestDetectMemorylessAndRanged(t *testing.T) {
	cpi := NewQuantityTheoryEngine().ImpliedInflation(monthlySeries("CPI", 37, 250, 0.03))
	qt := NewQuantityTheoryEngine().ImpliedInflation(monthlySeries("P", 37, 100, 0.05))
	hedge := dailySeries("BTC-USD", t0, t0.AddDate(3, 0, 0), func(i int) float64 {
		return 10000 * math.Exp(float64(i)/400) * (1 + 0.05*math.Sin(float64(i)/9))
	})
	m := monthlySeries("M2", 37, 15000, 0.06)
	d := newDetector(t)

	all := d.Detect(cpi, qt, hedge, m, time.Time{}, time.Time{})
	require.NotEmpty(t, all)

	from, to := t0.AddDate(1, 0, 0), t0.AddDate(2, 0, 0)
	sub := d.Detect(cpi, qt, hedge, m, from, to)
	require.NotEmpty(t, sub)

	index := make(map[time.Time]models.SignalReading, len(all))
	for _, r := range all {
		index[r.Time] = r
	}
	for _, r := range sub {
		assert.False(t, r.Time.Before(from))
		assert.False(t, r.Time.After(to))
		assert.Equal(t, index[r.Time], r)
	}
}

func TestDetectTrailingGapYieldsNoData(t *testing.T) {
	engine := NewQuantityTheoryEngine()
	cpi := engine.ImpliedInflation(monthlySeries("CPI", 37, 250, 0.03))
	qt := engine.ImpliedInflation(monthlySeries("P", 37, 100, 0.08))
	d := newDetector(t)

	lastObs := t0.AddDate(0, 36, 0)
	from, to := t0.AddDate(2, 0, 0), t0.AddDate(4, 0, 0)
	readings := d.Detect(cpi, qt, models.TimeSeries{}, models.TimeSeries{}, from, to)
	require.NotEmpty(t, readings)

	var live, stale int
	for _, r := range readings {
		if r.Time.Sub(lastObs) > d.Config().MaxStaleness {
			assert.True(t, r.NoData, "reading at %s", r.Time)
			assert.Equal(t, models.AlertNone, r.Level)
			assert.Nil(t, r.DivergenceScore)
			stale++
			continue
		}
		if !r.NoData {
			live++
		}
	}
	assert.Positive(t, live)
	assert.Positive(t, stale)

	last := readings[len(readings)-1]
	assert.Equal(t, to, last.Time)
	assert.True(t, last.NoData)
}

func TestDetectWithoutAnyInputs(t *testing.T) {
	d := newDetector(t)
	empty := models.TimeSeries{}

	readings := d.Detect(empty, empty, empty, empty, t0, t0.AddDate(1, 0, 0))
	require.Len(t, readings, 13)
	for _, r := range readings {
		assert.True(t, r.NoData)
		assert.Equal(t, models.AlertNone, r.Level)
	}
	assert.Equal(t, t0, readings[0].Time)
	assert.Equal(t, t0.AddDate(1, 0, 0), readings[12].Time)

	assert.Empty(t, d.Detect(empty, empty, empty, empty, time.Time{}, time.Time{}))
}

func TestTimelineIncludesGridAndObservations(t *testing.T) {
	mid := t0.AddDate(0, 0, 14)
	s := seriesOf("X", []time.Time{mid}, []float64{1})

	got := Timeline(t0, t0.AddDate(0, 2, 10), s)
	assert.Equal(t, []time.Time{t0, mid, t0.AddDate(0, 1, 0), t0.AddDate(0, 2, 0), t0.AddDate(0, 2, 10)}, got)

	open := Timeline(time.Time{}, time.Time{}, s)
	assert.Equal(t, []time.Time{mid}, open)
}
