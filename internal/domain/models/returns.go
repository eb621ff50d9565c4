package models

import "time"

// ReturnsRecord holds the returns metrics of one asset over one period.
type ReturnsRecord struct {
	Asset              string    `json:"asset"`
	DisplayName        string    `json:"display_name,omitempty"`
	Period             Period    `json:"period"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	Years              Metric    `json:"years"`
	Observations       int       `json:"observations"`
	ScopedToOwnHistory bool      `json:"scoped_to_own_history"`

	NominalTotal      Metric `json:"nominal_total"`
	NominalAnnualized Metric `json:"nominal_annualized"`
	CPIRealAnnualized Metric `json:"cpi_real_annualized"`
	QTRealAnnualized  Metric `json:"qt_real_annualized"`
	CPICumulative     Metric `json:"cpi_cumulative_inflation"`
	QTCumulative      Metric `json:"qt_cumulative_inflation"`
	NominalVolatility Metric `json:"nominal_volatility"`
	CPIRealVolatility Metric `json:"cpi_real_volatility"`
	QTRealVolatility  Metric `json:"qt_real_volatility"`
	NominalSharpe     Metric `json:"nominal_sharpe"`
	CPIRealSharpe     Metric `json:"cpi_real_sharpe"`
	QTRealSharpe      Metric `json:"qt_real_sharpe"`
	InflationSpread   Metric `json:"inflation_spread"`
	BetterAgainst     string `json:"better_against,omitempty"`
}

// RankMetric selects the value a ranking is ordered by.
type RankMetric string

const (
	RankNominal RankMetric = "nominal"
	RankCPIReal RankMetric = "cpi_real"
	RankQTReal  RankMetric = "qt_real"
)

// Value returns the metric of r selected by m.
func (m RankMetric) Value(r ReturnsRecord) Metric {
	switch m {
	case RankNominal:
		return r.NominalAnnualized
	case RankQTReal:
		return r.QTRealAnnualized
	default:
		return r.CPIRealAnnualized
	}
}

// RankedAsset is one row of a ranking.
type RankedAsset struct {
	Rank  int    `json:"rank"`
	Asset string `json:"asset"`
	Value Metric `json:"value"`
}

// Correlation is the pairwise correlation of two assets' periodic real returns.
type Correlation struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Value Metric `json:"value"`
}

// ReturnsReport is the result of a real-returns query.
type ReturnsReport struct {
	Period        Period                   `json:"period"`
	End           time.Time                `json:"end"`
	RiskFreeRate  float64                  `json:"risk_free_rate"`
	Records       map[string]ReturnsRecord `json:"records"`
	RankByCPIReal []RankedAsset            `json:"rank_by_cpi_real"`
	RankByQTReal  []RankedAsset            `json:"rank_by_qt_real"`
	TopPerformers []RankedAsset            `json:"top_performers"`
	Correlations  []Correlation            `json:"correlations,omitempty"`
	Catalog       []SeriesCatalogEntry     `json:"catalog"`
	Missing       []string                 `json:"missing,omitempty"`
	Warnings      []string                 `json:"warnings,omitempty"`
}
