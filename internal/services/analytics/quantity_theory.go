package analytics

import (
	"fmt"
	"math"
	"time"

	"MoneyPulse/internal/domain/models"
	"MoneyPulse/internal/services/features"
)

// Alignment selects how M, V and Q are put on a common time axis.
type Alignment int

const (
	// AlignIntersect keeps only timestamps present in all three series.
	AlignIntersect Alignment = iota
	// AlignForwardFill resamples onto the timestamps of the sparsest input (usually quarterly
	// GDP or velocity), carrying the other inputs' latest value forward. Carried values older
	// than the engine's max staleness are treated as missing, so P never outlives its inputs
	// and its changes are compounded at the slowest native cadence.
	AlignForwardFill
)

// DefaultMaxStaleness bounds carried values under AlignForwardFill: one quarter plus a
// publication lag.
const DefaultMaxStaleness = 120 * 24 * time.Hour

const PriceLevelSeries = "P"

// QuantityTheoryEngine computes the equation-of-exchange price level P = M*V/Q.
type QuantityTheoryEngine struct {
	alignment    Alignment
	base         float64
	maxStaleness time.Duration
}

type QTOption func(*QuantityTheoryEngine)

// WithAlignment sets the alignment policy.
func WithAlignment(a Alignment) QTOption {
	return func(e *QuantityTheoryEngine) { e.alignment = a }
}

// WithBase rescales the output so its first point equals base. Zero disables rescaling.
func WithBase(base float64) QTOption {
	return func(e *QuantityTheoryEngine) { e.base = base }
}

// WithMaxStaleness bounds how old a value carried by AlignForwardFill may be.
// Zero or less keeps the default.
func WithMaxStaleness(d time.Duration) QTOption {
	return func(e *QuantityTheoryEngine) {
		if d > 0 {
			e.maxStaleness = d
		}
	}
}

func NewQuantityTheoryEngine(opts ...QTOption) *QuantityTheoryEngine {
	e := &QuantityTheoryEngine{alignment: AlignIntersect, maxStaleness: DefaultMaxStaleness}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *QuantityTheoryEngine) MaxStaleness() time.Duration { return e.maxStaleness }

// ComputePriceLevel returns P on the aligned timestamps. Timestamps where Q is zero or
// where any input is missing are dropped. An empty result carries ErrInsufficientAlignment.
func (e *QuantityTheoryEngine) ComputePriceLevel(m, v, q models.TimeSeries) (models.TimeSeries, error) {
	if e.alignment == AlignForwardFill {
		m, v, q = e.resample(m, v, q)
	}

	pts := make([]models.Point, 0, m.Len())
	for _, mp := range m.Points {
		vv, ok := v.At(mp.Time)
		if !ok {
			continue
		}
		qv, ok := q.At(mp.Time)
		if !ok || qv == 0 {
			continue
		}
		p := mp.Value * vv / qv
		if math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		pts = append(pts, models.Point{Time: mp.Time, Value: p})
	}

	out := models.NewTimeSeries(PriceLevelSeries, pts)
	if out.Empty() {
		return out, fmt.Errorf("price level from %s/%s/%s: %w", m.Name, v.Name, q.Name, models.ErrInsufficientAlignment)
	}
	if e.base > 0 && out.Points[0].Value != 0 {
		scale := e.base / out.Points[0].Value
		for i := range out.Points {
			out.Points[i].Value *= scale
		}
	}
	out.Frequency = features.PeriodsPerYear(out.Times())
	return out, nil
}

// resample reindexes all three inputs onto the timestamps of the sparsest one. Ties go to
// Q, then V.
func (e *QuantityTheoryEngine) resample(m, v, q models.TimeSeries) (models.TimeSeries, models.TimeSeries, models.TimeSeries) {
	axis := q
	for _, s := range []models.TimeSeries{v, m} {
		if sparser(s, axis) {
			axis = s
		}
	}
	times := axis.Times()
	return m.ForwardFillWithin(times, e.maxStaleness),
		v.ForwardFillWithin(times, e.maxStaleness),
		q.ForwardFillWithin(times, e.maxStaleness)
}

// sparser reports whether a has fewer observations per year than b. A series too short
// to infer a cadence is never sparser.
func sparser(a, b models.TimeSeries) bool {
	fa := features.PeriodsPerYear(a.Times())
	fb := features.PeriodsPerYear(b.Times())
	if fa <= 0 {
		return false
	}
	return fb <= 0 || fa < fb
}

// ImpliedInflation annualises the period-over-period change of a price level by compounding
// at its native frequency: (P_t / P_{t-1})^ppy - 1. The first point has no predecessor and
// is omitted, as are pairs with a non-positive predecessor and pairs straddling a gap.
func (e *QuantityTheoryEngine) ImpliedInflation(p models.TimeSeries) models.TimeSeries {
	name := p.Name + "_inflation"
	ppy := p.Frequency
	if ppy <= 0 {
		ppy = features.PeriodsPerYear(p.Times())
	}
	if p.Len() < 2 || ppy <= 0 {
		return models.TimeSeries{Name: name}
	}

	pts := make([]models.Point, 0, p.Len()-1)
	for i := 1; i < p.Len(); i++ {
		prev := p.Points[i-1].Value
		if prev <= 0 || !features.Contiguous(p.Points[i-1].Time, p.Points[i].Time, ppy) {
			continue
		}
		pts = append(pts, models.Point{
			Time:  p.Points[i].Time,
			Value: math.Pow(p.Points[i].Value/prev, ppy) - 1,
		})
	}
	out := models.NewTimeSeries(name, pts)
	out.Frequency = ppy
	return out
}

// CumulativeInflation reads the change of a price index between two dates, using the
// last index value at or before each bound.
func CumulativeInflation(index models.TimeSeries, start, end time.Time) (float64, bool) {
	a, ok := index.AtOrBefore(start)
	if !ok || a.Value <= 0 {
		return 0, false
	}
	b, ok := index.AtOrBefore(end)
	if !ok {
		return 0, false
	}
	return b.Value/a.Value - 1, true
}
