package analytics

import (
	"math"
	"sort"
	"time"

	"MoneyPulse/internal/domain/models"
	"MoneyPulse/internal/services/features"
)

// ownHistoryGrace is the slack before a late first observation counts as a shorter history
// (weekends and holidays at the window start).
const ownHistoryGrace = 7 * 24 * time.Hour

// ReturnsAnalyzer computes nominal and inflation-adjusted returns, volatility and Sharpe.
type ReturnsAnalyzer struct {
	riskFree float64
}

func NewReturnsAnalyzer(riskFree float64) *ReturnsAnalyzer {
	return &ReturnsAnalyzer{riskFree: riskFree}
}

func (a *ReturnsAnalyzer) RiskFree() float64 { return a.riskFree }

// Analyze computes one record per asset over period ending at end. cpiIndex and qtIndex are
// price-level series (CPI level and quantity-theory P). Metrics that cannot be derived are
// left undefined rather than dropping the asset.
func (a *ReturnsAnalyzer) Analyze(assets map[string]models.TimeSeries, cpiIndex, qtIndex models.TimeSeries, period models.Period, end time.Time) map[string]models.ReturnsRecord {
	out := make(map[string]models.ReturnsRecord, len(assets))
	for name, prices := range assets {
		out[name] = a.analyzeAsset(name, prices, cpiIndex, qtIndex, period, end)
	}
	return out
}

func (a *ReturnsAnalyzer) analyzeAsset(name string, prices, cpiIndex, qtIndex models.TimeSeries, period models.Period, end time.Time) models.ReturnsRecord {
	start := period.Start(end)
	window := prices.Between(start, end)

	rec := models.ReturnsRecord{
		Asset:             name,
		Period:            period,
		Start:             start,
		End:               end,
		Observations:      window.Len(),
		Years:             models.Undefined(),
		NominalTotal:      models.Undefined(),
		NominalAnnualized: models.Undefined(),
		CPIRealAnnualized: models.Undefined(),
		QTRealAnnualized:  models.Undefined(),
		CPICumulative:     models.Undefined(),
		QTCumulative:      models.Undefined(),
		NominalVolatility: models.Undefined(),
		CPIRealVolatility: models.Undefined(),
		QTRealVolatility:  models.Undefined(),
		NominalSharpe:     models.Undefined(),
		CPIRealSharpe:     models.Undefined(),
		QTRealSharpe:      models.Undefined(),
		InflationSpread:   models.Undefined(),
	}
	if window.Len() < 2 {
		return rec
	}

	first, _ := window.First()
	last, _ := window.Last()
	rec.Start, rec.End = first.Time, last.Time
	if !start.IsZero() && first.Time.Sub(start) > ownHistoryGrace {
		rec.ScopedToOwnHistory = true
	}
	if first.Value <= 0 {
		return rec
	}

	years := features.YearsBetween(first.Time, last.Time)
	rec.Years = models.Metric(years)
	growth := last.Value / first.Value
	rec.NominalTotal = models.Metric(growth - 1)
	rec.NominalAnnualized = models.Metric(features.AnnualizeGrowth(growth, years))

	ppy := features.PeriodsPerYear(window.Times())
	rec.NominalVolatility = models.Metric(features.AnnualizedVolatility(window.Values(), ppy))
	rec.NominalSharpe = a.sharpe(rec.NominalAnnualized, rec.NominalVolatility)

	if cum, ok := CumulativeInflation(cpiIndex, first.Time, last.Time); ok {
		rec.CPICumulative = models.Metric(cum)
		rec.CPIRealAnnualized = models.Metric(features.AnnualizeGrowth(growth/(1+cum), years))
		rec.CPIRealVolatility = models.Metric(features.AnnualizedVolatility(Deflate(window, cpiIndex).Values(), ppy))
		rec.CPIRealSharpe = a.sharpe(rec.CPIRealAnnualized, rec.CPIRealVolatility)
	}
	if cum, ok := CumulativeInflation(qtIndex, first.Time, last.Time); ok {
		rec.QTCumulative = models.Metric(cum)
		rec.QTRealAnnualized = models.Metric(features.AnnualizeGrowth(growth/(1+cum), years))
		rec.QTRealVolatility = models.Metric(features.AnnualizedVolatility(Deflate(window, qtIndex).Values(), ppy))
		rec.QTRealSharpe = a.sharpe(rec.QTRealAnnualized, rec.QTRealVolatility)
	}

	if rec.CPIRealAnnualized.Defined() && rec.QTRealAnnualized.Defined() {
		rec.InflationSpread = rec.CPIRealAnnualized - rec.QTRealAnnualized
		switch {
		case rec.CPIRealAnnualized > rec.QTRealAnnualized:
			rec.BetterAgainst = "CPI"
		case rec.CPIRealAnnualized < rec.QTRealAnnualized:
			rec.BetterAgainst = "QT"
		default:
			rec.BetterAgainst = "equal"
		}
	}
	return rec
}

func (a *ReturnsAnalyzer) sharpe(ret, vol models.Metric) models.Metric {
	if !ret.Defined() || !vol.Defined() || vol == 0 {
		return models.Undefined()
	}
	return models.Metric((ret.Float() - a.riskFree) / vol.Float())
}

// Deflate divides each price by the index value at or before its timestamp.
// Prices earlier than the first index observation are dropped.
func Deflate(prices, index models.TimeSeries) models.TimeSeries {
	pts := make([]models.Point, 0, prices.Len())
	for _, p := range prices.Points {
		ip, ok := index.AtOrBefore(p.Time)
		if !ok || ip.Value <= 0 {
			continue
		}
		pts = append(pts, models.Point{Time: p.Time, Value: p.Value / ip.Value})
	}
	return models.NewTimeSeries(prices.Name, pts)
}

// Rank orders records descending by metric. Undefined values sort last; ties break by name.
func Rank(records map[string]models.ReturnsRecord, metric models.RankMetric) []models.RankedAsset {
	names := make([]string, 0, len(records))
	for n := range records {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		vi, vj := metric.Value(records[names[i]]), metric.Value(records[names[j]])
		di, dj := vi.Defined(), vj.Defined()
		if di != dj {
			return di
		}
		if di && vi != vj {
			return vi > vj
		}
		return names[i] < names[j]
	})

	out := make([]models.RankedAsset, len(names))
	for i, n := range names {
		out[i] = models.RankedAsset{Rank: i + 1, Asset: n, Value: metric.Value(records[n])}
	}
	return out
}

// TopPerformers returns the first n defined entries of the ranking by metric.
func TopPerformers(records map[string]models.ReturnsRecord, metric models.RankMetric, n int) []models.RankedAsset {
	ranked := Rank(records, metric)
	out := make([]models.RankedAsset, 0, n)
	for _, r := range ranked {
		if len(out) >= n {
			break
		}
		if r.Value.Defined() {
			out = append(out, r)
		}
	}
	return out
}

// RealReturnCorrelations computes pairwise correlations of periodic real returns over the
// period window. Returns are matched on common timestamps.
func RealReturnCorrelations(assets map[string]models.TimeSeries, index models.TimeSeries, period models.Period, end time.Time) []models.Correlation {
	start := period.Start(end)
	rets := make(map[string]map[time.Time]float64, len(assets))
	names := make([]string, 0, len(assets))
	for name, prices := range assets {
		deflated := Deflate(prices.Between(start, end), index)
		r := make(map[time.Time]float64, deflated.Len())
		for i := 1; i < deflated.Len(); i++ {
			prev := deflated.Points[i-1].Value
			if prev <= 0 {
				continue
			}
			r[deflated.Points[i].Time] = deflated.Points[i].Value/prev - 1
		}
		rets[name] = r
		names = append(names, name)
	}
	sort.Strings(names)

	var out []models.Correlation
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			ra, rb := rets[names[i]], rets[names[j]]
			common := make([]time.Time, 0, len(ra))
			for t := range ra {
				if _, ok := rb[t]; ok {
					common = append(common, t)
				}
			}
			sort.Slice(common, func(x, y int) bool { return common[x].Before(common[y]) })
			xs := make([]float64, len(common))
			ys := make([]float64, len(common))
			for k, t := range common {
				xs[k], ys[k] = ra[t], rb[t]
			}
			c := features.Correlation(xs, ys)
			if math.IsNaN(c) {
				out = append(out, models.Correlation{A: names[i], B: names[j], Value: models.Undefined()})
				continue
			}
			out = append(out, models.Correlation{A: names[i], B: names[j], Value: models.Metric(c)})
		}
	}
	return out
}
