package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"MoneyPulse/internal/domain/models"
	"MoneyPulse/internal/services/features"
)

// SignalConfig holds weights, thresholds and standardisation settings of the detector.
type SignalConfig struct {
	DivergenceWeight   float64
	MomentumWeight     float64
	AccelerationWeight float64

	WatchThreshold    float64
	ElevatedThreshold float64
	HighThreshold     float64
	ClipBound         float64

	// Window is the number of preceding raw values each indicator is standardised against.
	Window int
	// MomentumLookback is the rate-of-change horizon of the hedge asset, in observations.
	MomentumLookback int

	// Scales floor the dispersion each raw indicator is standardised by.
	DivergenceScale   float64
	MomentumScale     float64
	AccelerationScale float64

	// MaxStaleness bounds how old an indicator value may be and still count at a timestamp.
	MaxStaleness time.Duration
}

// DefaultSignalConfig returns equal weights and the standard WATCH/ELEVATED/HIGH cut-offs.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		DivergenceWeight:   1,
		MomentumWeight:     1,
		AccelerationWeight: 1,
		WatchThreshold:     0.5,
		ElevatedThreshold:  1.0,
		HighThreshold:      2.0,
		ClipBound:          3.0,
		Window:             12,
		MomentumLookback:   20,
		DivergenceScale:    0.02,
		MomentumScale:      0.10,
		AccelerationScale:  0.02,
		MaxStaleness:       120 * 24 * time.Hour,
	}
}

func (c SignalConfig) Validate() error {
	if !(c.WatchThreshold < c.ElevatedThreshold && c.ElevatedThreshold < c.HighThreshold) {
		return fmt.Errorf("signal thresholds must increase: watch=%v elevated=%v high=%v",
			c.WatchThreshold, c.ElevatedThreshold, c.HighThreshold)
	}
	if c.DivergenceWeight < 0 || c.MomentumWeight < 0 || c.AccelerationWeight < 0 {
		return errors.New("signal weights must be non-negative")
	}
	if c.DivergenceWeight+c.MomentumWeight+c.AccelerationWeight == 0 {
		return errors.New("at least one signal weight must be positive")
	}
	if c.ClipBound <= 0 {
		return errors.New("clip bound must be positive")
	}
	if c.Window < 2 {
		return errors.New("signal window must be at least 2")
	}
	if c.MomentumLookback < 1 {
		return errors.New("momentum lookback must be at least 1")
	}
	if c.DivergenceScale <= 0 || c.MomentumScale <= 0 || c.AccelerationScale <= 0 {
		return errors.New("signal scales must be positive")
	}
	return nil
}

func (c SignalConfig) weight(i models.Indicator) float64 {
	switch i {
	case models.IndicatorDivergence:
		return c.DivergenceWeight
	case models.IndicatorMomentum:
		return c.MomentumWeight
	case models.IndicatorAcceleration:
		return c.AccelerationWeight
	}
	return 0
}

// SignalDetector turns inflation, hedge-asset and money-supply series into per-timestamp
// debasement readings.
type SignalDetector struct {
	cfg SignalConfig
}

func NewSignalDetector(cfg SignalConfig) (*SignalDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SignalDetector{cfg: cfg}, nil
}

func (d *SignalDetector) Config() SignalConfig { return d.cfg }

// Detect produces one reading per timestamp of the timeline inside [start, end]: every
// observation of the inputs plus the first of each month and the end bound. Zero bounds
// are open. Timestamps where every indicator is missing or stale yield NoData readings.
// Each reading only depends on data at or before its timestamp.
func (d *SignalDetector) Detect(cpiInflation, qtInflation, hedge, money models.TimeSeries, start, end time.Time) []models.SignalReading {
	scores := map[models.Indicator]models.TimeSeries{
		models.IndicatorDivergence:   d.divergenceScores(cpiInflation, qtInflation),
		models.IndicatorMomentum:     d.momentumScores(hedge),
		models.IndicatorAcceleration: d.accelerationScores(money),
	}
	timeline := Timeline(start, end, cpiInflation, qtInflation, hedge, money)

	out := make([]models.SignalReading, 0, len(timeline))
	for _, t := range timeline {
		vals := make(map[models.Indicator]float64, 3)
		for ind, s := range scores {
			if p, ok := s.AtOrBefore(t); ok && t.Sub(p.Time) <= d.cfg.MaxStaleness {
				vals[ind] = p.Value
			}
		}
		out = append(out, d.Reading(t, vals))
	}
	return out
}

// Timeline returns the sorted, de-duplicated instants a signal is evaluated at inside
// [start, end]. An open bound is replaced by the earliest or latest observation.
func Timeline(start, end time.Time, inputs ...models.TimeSeries) []time.Time {
	lo, hi := start, end
	seen := make(map[time.Time]struct{})
	var out []time.Time
	add := func(t time.Time) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, s := range inputs {
		for _, p := range s.Between(start, end).Points {
			add(p.Time)
			if start.IsZero() && (lo.IsZero() || p.Time.Before(lo)) {
				lo = p.Time
			}
			if end.IsZero() && p.Time.After(hi) {
				hi = p.Time
			}
		}
	}
	if lo.IsZero() || hi.IsZero() || hi.Before(lo) {
		sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
		return out
	}

	m := time.Date(lo.Year(), lo.Month(), 1, 0, 0, 0, 0, lo.Location())
	if m.Before(lo) {
		m = m.AddDate(0, 1, 0)
	}
	for ; !m.After(hi); m = m.AddDate(0, 1, 0) {
		add(m)
	}
	if !end.IsZero() {
		add(end)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Reading combines the available indicator scores at t into a classified reading.
func (d *SignalDetector) Reading(t time.Time, vals map[models.Indicator]float64) models.SignalReading {
	r := models.SignalReading{Time: t}

	var sum, wsum float64
	driver := models.Indicator("")
	best := -1.0
	for _, ind := range models.Indicators() {
		z, ok := vals[ind]
		if !ok {
			continue
		}
		z = features.Clip(z, d.cfg.ClipBound)
		zz := z
		switch ind {
		case models.IndicatorDivergence:
			r.DivergenceScore = &zz
		case models.IndicatorMomentum:
			r.MomentumScore = &zz
		case models.IndicatorAcceleration:
			r.MoneyAccelerationScore = &zz
		}
		w := d.cfg.weight(ind)
		if w <= 0 {
			continue
		}
		sum += w * z
		wsum += w
		if c := math.Abs(w * z); c > best {
			best, driver = c, ind
		}
	}

	if wsum == 0 {
		r.NoData = true
		r.Level = models.AlertNone
		r.Recommendation = d.Recommend(models.AlertNone, 0, "", true)
		return r
	}

	r.Composite = features.Clip(sum/wsum, d.cfg.ClipBound)
	r.Level = d.Classify(r.Composite)
	r.DominantDriver = driver
	r.Recommendation = d.Recommend(r.Level, r.Composite, driver, false)
	return r
}

// Classify maps a composite score onto an alert level.
func (d *SignalDetector) Classify(composite float64) models.AlertLevel {
	switch {
	case composite >= d.cfg.HighThreshold:
		return models.AlertHigh
	case composite >= d.cfg.ElevatedThreshold:
		return models.AlertElevated
	case composite >= d.cfg.WatchThreshold:
		return models.AlertWatch
	default:
		return models.AlertNone
	}
}

// Recommend returns the descriptive label for a reading.
func (d *SignalDetector) Recommend(level models.AlertLevel, composite float64, driver models.Indicator, noData bool) string {
	if noData {
		return "insufficient data to assess monetary debasement"
	}
	var head string
	switch level {
	case models.AlertHigh:
		head = "high monetary debasement risk"
	case models.AlertElevated:
		head = "elevated monetary debasement risk"
	case models.AlertWatch:
		head = "moderate monetary debasement risk"
	default:
		if composite > -d.cfg.WatchThreshold {
			return "no significant monetary debasement signal"
		}
		head = "disinflationary conditions"
	}
	if driver == "" {
		return head
	}
	return head + ", driven by " + driver.Label()
}

// divergenceScores standardises QT inflation minus CPI inflation around zero.
func (d *SignalDetector) divergenceScores(cpi, qt models.TimeSeries) models.TimeSeries {
	raw := make([]models.Point, 0, qt.Len())
	for _, p := range qt.Points {
		c, ok := cpi.AtOrBefore(p.Time)
		if !ok || p.Time.Sub(c.Time) > d.cfg.MaxStaleness {
			continue
		}
		raw = append(raw, models.Point{Time: p.Time, Value: p.Value - c.Value})
	}
	return d.standardize(string(models.IndicatorDivergence), raw, false, d.cfg.DivergenceScale)
}

// momentumScores standardises the hedge asset's rate of change against its trailing mean.
func (d *SignalDetector) momentumScores(hedge models.TimeSeries) models.TimeSeries {
	lag := d.cfg.MomentumLookback
	raw := make([]models.Point, 0, hedge.Len())
	for i := lag; i < hedge.Len(); i++ {
		prev := hedge.Points[i-lag].Value
		if prev <= 0 {
			continue
		}
		raw = append(raw, models.Point{Time: hedge.Points[i].Time, Value: hedge.Points[i].Value/prev - 1})
	}
	return d.standardize(string(models.IndicatorMomentum), raw, true, d.cfg.MomentumScale)
}

// accelerationScores standardises the change of the annualised money-supply growth rate around zero.
func (d *SignalDetector) accelerationScores(money models.TimeSeries) models.TimeSeries {
	ppy := money.Frequency
	if ppy <= 0 {
		ppy = features.PeriodsPerYear(money.Times())
	}
	if ppy <= 0 {
		return models.TimeSeries{Name: string(models.IndicatorAcceleration)}
	}

	growth := make([]models.Point, 0, money.Len())
	for i := 1; i < money.Len(); i++ {
		prev := money.Points[i-1].Value
		if prev <= 0 || !features.Contiguous(money.Points[i-1].Time, money.Points[i].Time, ppy) {
			continue
		}
		growth = append(growth, models.Point{
			Time:  money.Points[i].Time,
			Value: math.Pow(money.Points[i].Value/prev, ppy) - 1,
		})
	}
	raw := make([]models.Point, 0, len(growth))
	for i := 1; i < len(growth); i++ {
		if !features.Contiguous(growth[i-1].Time, growth[i].Time, ppy) {
			continue
		}
		raw = append(raw, models.Point{Time: growth[i].Time, Value: growth[i].Value - growth[i-1].Value})
	}
	return d.standardize(string(models.IndicatorAcceleration), raw, false, d.cfg.AccelerationScale)
}

func (d *SignalDetector) standardize(name string, raw []models.Point, centerOnMean bool, floor float64) models.TimeSeries {
	out := make([]models.Point, 0, len(raw))
	for i, p := range raw {
		lo := i - d.cfg.Window
		if lo < 0 {
			lo = 0
		}
		baseline := make([]float64, 0, i-lo)
		for _, b := range raw[lo:i] {
			baseline = append(baseline, b.Value)
		}
		z, ok := features.Standardize(p.Value, baseline, centerOnMean, floor)
		if !ok {
			continue
		}
		out = append(out, models.Point{Time: p.Time, Value: z})
	}
	return models.NewTimeSeries(name, out)
}
