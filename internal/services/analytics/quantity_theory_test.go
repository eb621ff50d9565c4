package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"MoneyPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// monthlySeries builds n monthly points growing at annual rate g from base.
func monthlySeries(name string, n int, base, g float64) models.TimeSeries {
	pts := make([]models.Point, n)
	for i := range pts {
		pts[i] = models.Point{Time: t0.AddDate(0, i, 0), Value: base * math.Pow(1+g, float64(i)/12)}
	}
	return models.NewTimeSeries(name, pts)
}

func seriesOf(name string, times []time.Time, vals []float64) models.TimeSeries {
	pts := make([]models.Point, len(times))
	for i := range times {
		pts[i] = models.Point{Time: times[i], Value: vals[i]}
	}
	return models.NewTimeSeries(name, pts)
}

func TestComputePriceLevelIntersection(t *testing.T) {
	d := func(i int) time.Time { return t0.AddDate(0, i, 0) }
	m := seriesOf("M2", []time.Time{d(0), d(1), d(2), d(3), d(4)}, []float64{100, 110, 120, 130, 140})
	v := seriesOf("VELOCITY", []time.Time{d(1), d(2), d(3), d(4)}, []float64{2, 2, 2, 2})
	q := seriesOf("GDP", []time.Time{d(0), d(1), d(2), d(4)}, []float64{10, 0, 20, 40})

	e := NewQuantityTheoryEngine()
	p, err := e.ComputePriceLevel(m, v, q)
	require.NoError(t, err)

	// d(0) lacks V, d(1) has Q=0, d(3) lacks Q.
	require.Equal(t, 2, p.Len())
	assert.Equal(t, d(2), p.Points[0].Time)
	assert.InDelta(t, 12.0, p.Points[0].Value, 1e-12)
	assert.InDelta(t, 7.0, p.Points[1].Value, 1e-12)
}

func TestComputePriceLevelEmptyIntersection(t *testing.T) {
	m := monthlySeries("M2", 3, 100, 0.1)
	v := seriesOf("VELOCITY", []time.Time{t0.AddDate(5, 0, 0)}, []float64{1})
	q := monthlySeries("GDP", 3, 100, 0.02)

	p, err := NewQuantityTheoryEngine().ComputePriceLevel(m, v, q)
	assert.True(t, errors.Is(err, models.ErrInsufficientAlignment))
	assert.True(t, p.Empty())
}

func TestComputePriceLevelForwardFillAndBase(t *testing.T) {
	m := monthlySeries("M2", 7, 100, 0.1)
	quarter := []time.Time{t0, t0.AddDate(0, 3, 0), t0.AddDate(0, 6, 0)}
	v := seriesOf("VELOCITY", quarter, []float64{1.5, 1.5, 1.5})
	q := seriesOf("GDP", quarter, []float64{20, 20, 20})

	intersect, err := NewQuantityTheoryEngine().ComputePriceLevel(m, v, q)
	require.NoError(t, err)
	assert.Equal(t, 3, intersect.Len())

	filled, err := NewQuantityTheoryEngine(WithAlignment(AlignForwardFill), WithBase(100)).ComputePriceLevel(m, v, q)
	require.NoError(t, err)
	assert.Equal(t, quarter, filled.Times())
	assert.InDelta(t, 100.0, filled.Points[0].Value, 1e-9)
	assert.Equal(t, 4.0, filled.Frequency)
}

func TestComputePriceLevelForwardFillStopsAtStaleInputs(t *testing.T) {
	m := monthlySeries("M2", 36, 100, 0)
	var quarters []time.Time
	for i := 0; i < 12; i++ {
		quarters = append(quarters, t0.AddDate(0, 3*i, 0))
	}
	ones := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = 1
		}
		return out
	}
	v := seriesOf("VELOCITY", quarters[:4], ones(4))
	q := seriesOf("GDP", quarters, ones(12))

	p, err := NewQuantityTheoryEngine(WithAlignment(AlignForwardFill)).ComputePriceLevel(m, v, q)
	require.NoError(t, err)
	// V's last print (2020-10-01) is still fresh on 2021-01-01 and stale a quarter later.
	assert.Equal(t, quarters[:5], p.Times())
	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, t0.AddDate(1, 0, 0), last.Time)

	tight, err := NewQuantityTheoryEngine(WithAlignment(AlignForwardFill), WithMaxStaleness(30*24*time.Hour)).ComputePriceLevel(m, v, q)
	require.NoError(t, err)
	assert.Equal(t, quarters[:4], tight.Times())
}

func TestForwardFillQuarterlyStepCompoundsQuarterly(t *testing.T) {
	m := monthlySeries("M2", 13, 100, 0)
	quarter := []time.Time{t0, t0.AddDate(0, 3, 0), t0.AddDate(0, 6, 0), t0.AddDate(0, 9, 0), t0.AddDate(1, 0, 0)}
	v := seriesOf("VELOCITY", quarter, []float64{1, 1, 1.03, 1.03, 1.03})
	q := seriesOf("GDP", quarter, []float64{20, 20, 20, 20, 20})

	e := NewQuantityTheoryEngine(WithAlignment(AlignForwardFill))
	p, err := e.ComputePriceLevel(m, v, q)
	require.NoError(t, err)
	require.Equal(t, 5, p.Len())
	assert.Equal(t, 4.0, p.Frequency)

	infl := e.ImpliedInflation(p)
	step, ok := infl.At(t0.AddDate(0, 6, 0))
	require.True(t, ok)
	assert.InDelta(t, math.Pow(1.03, 4)-1, step, 1e-9)
	flat, ok := infl.At(t0.AddDate(0, 9, 0))
	require.True(t, ok)
	assert.InDelta(t, 0.0, flat, 1e-12)
}

func TestImpliedInflationSkipsGaps(t *testing.T) {
	full := monthlySeries("P", 24, 100, 0.05)
	pts := append(append([]models.Point{}, full.Points[:6]...), full.Points[18:]...)
	p := models.NewTimeSeries("P", pts)
	p.Frequency = 12

	infl := NewQuantityTheoryEngine().ImpliedInflation(p)
	require.Equal(t, 5+5, infl.Len())
	_, ok := infl.At(t0.AddDate(0, 18, 0))
	assert.False(t, ok)
	for _, pt := range infl.Points {
		assert.InDelta(t, 0.05, pt.Value, 1e-9)
	}
}

func TestImpliedInflationConstantIsZero(t *testing.T) {
	p := monthlySeries("P", 24, 100, 0)
	infl := NewQuantityTheoryEngine().ImpliedInflation(p)
	require.Equal(t, 23, infl.Len())
	for _, pt := range infl.Points {
		assert.Equal(t, 0.0, pt.Value)
	}
}

func TestImpliedInflationAnnualizes(t *testing.T) {
	p := monthlySeries("CPI", 25, 250, 0.03)
	infl := NewQuantityTheoryEngine().ImpliedInflation(p)
	require.Equal(t, 24, infl.Len())
	assert.Equal(t, 12.0, infl.Frequency)
	for _, pt := range infl.Points {
		assert.InDelta(t, 0.03, pt.Value, 1e-9)
	}

	assert.True(t, NewQuantityTheoryEngine().ImpliedInflation(monthlySeries("X", 1, 1, 0)).Empty())
}

func TestCumulativeInflation(t *testing.T) {
	cpi := monthlySeries("CPI", 13, 100, 0.05)
	got, ok := CumulativeInflation(cpi, t0, t0.AddDate(1, 0, 0))
	require.True(t, ok)
	assert.InDelta(t, 0.05, got, 1e-9)

	// bounds between observations read the previous value
	got, ok = CumulativeInflation(cpi, t0.AddDate(0, 0, 10), t0.AddDate(1, 0, 10))
	require.True(t, ok)
	assert.InDelta(t, 0.05, got, 1e-9)

	_, ok = CumulativeInflation(cpi, t0.AddDate(-1, 0, 0), t0.AddDate(1, 0, 0))
	assert.False(t, ok)
}
