package features

import (
	"math"
	"sort"
	"time"
)

// PctChanges computes simple returns r_t = V_t / V_{t-1} - 1.
// Pairs with a non-positive previous value are skipped.
func PctChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev <= 0 {
			continue
		}
		out = append(out, values[i]/prev-1)
	}
	return out
}

// Mean returns the arithmetic mean, NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation (n-1), NaN with fewer than two values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// AnnualizedVolatility is the sample stdev of periodic pct changes scaled by sqrt(periodsPerYear).
// It is NaN when fewer than two changes are available.
func AnnualizedVolatility(values []float64, periodsPerYear float64) float64 {
	sd := StdDev(PctChanges(values))
	if math.IsNaN(sd) || periodsPerYear <= 0 {
		return math.NaN()
	}
	return sd * math.Sqrt(periodsPerYear)
}

// canonical frequencies: annual, quarterly, monthly, weekly, trading daily, calendar daily.
var canonicalPPY = []float64{1, 4, 12, 52, 252, 365}

// PeriodsPerYear infers the sampling frequency from the observed density of the timestamps
// and snaps it to the nearest canonical frequency. It returns 0 with fewer than two points.
func PeriodsPerYear(times []time.Time) float64 {
	if len(times) < 2 {
		return 0
	}
	years := YearsBetween(times[0], times[len(times)-1])
	if years <= 0 {
		return 0
	}
	observed := float64(len(times)-1) / years
	if len(times) < 4 {
		observed = 365.25 / medianSpacingDays(times)
	}
	best := canonicalPPY[0]
	bestDist := math.Inf(1)
	for _, c := range canonicalPPY {
		d := math.Abs(math.Log(observed / c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Contiguous reports whether cur follows prev closely enough to be treated as one period of
// a series sampled ppy times a year. The allowance is two periods and never under a week.
func Contiguous(prev, cur time.Time, ppy float64) bool {
	if ppy <= 0 {
		return false
	}
	limit := time.Duration(2 * 365.25 / ppy * float64(24*time.Hour))
	if limit < 7*24*time.Hour {
		limit = 7 * 24 * time.Hour
	}
	return cur.Sub(prev) <= limit
}

func medianSpacingDays(times []time.Time) float64 {
	gaps := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gaps = append(gaps, times[i].Sub(times[i-1]).Hours()/24)
	}
	sort.Float64s(gaps)
	n := len(gaps)
	if n%2 == 1 {
		return gaps[n/2]
	}
	return (gaps[n/2-1] + gaps[n/2]) / 2
}

// YearsBetween returns the elapsed time in years: whole calendar years plus the
// remaining fraction of the following year.
func YearsBetween(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}
	whole := 0
	for !start.AddDate(whole+1, 0, 0).After(end) {
		whole++
	}
	anchor := start.AddDate(whole, 0, 0)
	next := start.AddDate(whole+1, 0, 0)
	return float64(whole) + end.Sub(anchor).Hours()/next.Sub(anchor).Hours()
}

// Annualize converts a total return over years into a compounded annual rate.
func Annualize(total, years float64) float64 {
	return AnnualizeGrowth(1+total, years)
}

// AnnualizeGrowth converts a growth factor (end/start) over years into a compounded annual rate.
func AnnualizeGrowth(factor, years float64) float64 {
	if years <= 0 || factor < 0 {
		return math.NaN()
	}
	return math.Pow(factor, 1/years) - 1
}

// Standardize scores x against a baseline: (x - center) / max(stdev(baseline), floor).
// When centerOnMean is set the center is the baseline mean and at least two baseline
// values are required; otherwise the center is zero. ok is false when no score exists.
func Standardize(x float64, baseline []float64, centerOnMean bool, floor float64) (float64, bool) {
	center := 0.0
	if centerOnMean {
		if len(baseline) < 2 {
			return 0, false
		}
		center = Mean(baseline)
	}
	scale := floor
	if sd := StdDev(baseline); !math.IsNaN(sd) && sd > scale {
		scale = sd
	}
	if scale <= 0 {
		if x == center {
			return 0, true
		}
		return 0, false
	}
	return (x - center) / scale, true
}

// Clip bounds x to [-bound, bound].
func Clip(x, bound float64) float64 {
	if bound <= 0 {
		return x
	}
	return math.Max(-bound, math.Min(bound, x))
}

// Correlation returns the Pearson correlation of two equal-length samples.
// It is NaN when either sample has zero variance or fewer than two values.
func Correlation(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return math.NaN()
	}
	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}
