package fallback

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"MoneyPulse/internal/domain/models"
)

// Macro series names understood by the generator.
const (
	SeriesCPI      = "CPI"
	SeriesM2       = "M2"
	SeriesVelocity = "VELOCITY"
	SeriesGDP      = "GDP"
)

// macroAnchor fixes the level of the macro series so overlapping ranges agree.
var macroAnchor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type macroParams struct {
	base      float64 // level at macroAnchor
	growth    float64 // annual
	noise     float64 // relative
	quarterly bool
}

var macroSeries = map[string]macroParams{
	SeriesCPI:      {base: 170, growth: 0.03, noise: 0.001},
	SeriesM2:       {base: 4600, growth: 0.06, noise: 0.002},
	SeriesVelocity: {base: 2.1, growth: -0.02, noise: 0.005, quarterly: true},
	SeriesGDP:      {base: 13000, growth: 0.02, noise: 0.003, quarterly: true},
}

// defaultSpan is used when no start is given.
const defaultSpan = 10

// Generator produces deterministic synthetic series. The same name and range always
// produce the same points.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

// Series generates name over [start, end]. Macro names produce monthly or quarterly
// observations on the first day of the period; catalog assets follow a geometric
// Brownian motion. Names are matched case-insensitively and the result keeps the
// requested name. A name with no synthetic model yields ErrSeriesUnavailable.
func (g *Generator) Series(name string, start, end time.Time) (models.TimeSeries, error) {
	end = day(end)
	if start.IsZero() {
		start = end.AddDate(-defaultSpan, 0, 0)
	}
	start = day(start)
	if end.Before(start) {
		return models.TimeSeries{}, fmt.Errorf("synthetic %s: %w", name, models.ErrInvalidRange)
	}
	key := canonical(name)
	if p, ok := macroSeries[key]; ok {
		ts := g.macro(key, p, start, end)
		ts.Name = name
		return ts, nil
	}
	if a, ok := LookupAsset(key); ok {
		ts := g.asset(key, a, start, end)
		ts.Name = name
		return ts, nil
	}
	return models.TimeSeries{}, fmt.Errorf("no synthetic model for %q: %w", name, models.ErrSeriesUnavailable)
}

// Supports reports whether name has a synthetic model.
func (g *Generator) Supports(name string) bool {
	key := canonical(name)
	if _, ok := macroSeries[key]; ok {
		return true
	}
	_, ok := LookupAsset(key)
	return ok
}

func canonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func (g *Generator) macro(name string, p macroParams, start, end time.Time) models.TimeSeries {
	step := 1
	if p.quarterly {
		step = 3
	}
	var pts []models.Point
	for t := periodStart(start, step); !t.After(end); t = t.AddDate(0, step, 0) {
		years := t.Sub(macroAnchor).Hours() / 24 / 365.25
		level := p.base * math.Pow(1+p.growth, years)
		// noise is keyed by period so the value at a date does not depend on start
		level *= 1 + p.noise*noiseAt(name, monthIndex(t))
		pts = append(pts, models.Point{Time: t, Value: level})
	}
	ts := models.NewTimeSeries(name, pts)
	if p.quarterly {
		ts.Frequency = 4
	} else {
		ts.Frequency = 12
	}
	return ts
}

func (g *Generator) asset(name string, a Asset, start, end time.Time) models.TimeSeries {
	ppy := 252.0
	if a.Crypto {
		ppy = 365
	}
	mu := a.Drift / ppy
	sigma := a.Volatility / math.Sqrt(ppy)
	rng := rand.New(rand.NewSource(seed(name)))

	var pts []models.Point
	logPrice := math.Log(a.BasePrice)
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		if !a.Crypto && isWeekend(t) {
			continue
		}
		if len(pts) > 0 {
			logPrice += mu - sigma*sigma/2 + sigma*rng.NormFloat64()
		}
		pts = append(pts, models.Point{Time: t, Value: math.Exp(logPrice)})
	}
	ts := models.NewTimeSeries(name, pts)
	ts.Frequency = ppy
	return ts
}

func seed(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64() & math.MaxInt64)
}

// noiseAt returns a standard normal draw keyed by (name, idx).
func noiseAt(name string, idx int) float64 {
	r := rand.New(rand.NewSource(seed(fmt.Sprintf("%s#%d", name, idx))))
	return r.NormFloat64()
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func periodStart(t time.Time, stepMonths int) time.Time {
	m := int(t.Month()) - 1
	m -= m % stepMonths
	p := time.Date(t.Year(), time.Month(m+1), 1, 0, 0, 0, 0, time.UTC)
	if p.Before(t) {
		p = p.AddDate(0, stepMonths, 0)
	}
	return p
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
