package service

import (
	"context"
	"time"

	"MoneyPulse/internal/domain/models"
)

// DatasetFetcher acquires a set of named series for a date range.
type DatasetFetcher interface {
	Fetch(ctx context.Context, names []string, start, end time.Time) (*models.Dataset, error)
}

// PriceLevelEngine derives the quantity-theory price level and implied inflation.
type PriceLevelEngine interface {
	ComputePriceLevel(m, v, q models.TimeSeries) (models.TimeSeries, error)
	ImpliedInflation(p models.TimeSeries) models.TimeSeries
}

// ReturnsAnalyzer computes per-asset returns records over a period.
type ReturnsAnalyzer interface {
	Analyze(assets map[string]models.TimeSeries, cpiIndex, qtIndex models.TimeSeries, period models.Period, end time.Time) map[string]models.ReturnsRecord
	RiskFree() float64
}

// SignalDetector classifies each timestamp of the inputs.
type SignalDetector interface {
	Detect(cpiInflation, qtInflation, hedge, money models.TimeSeries, start, end time.Time) []models.SignalReading
	// Reading scores a single timestamp from whichever indicator values are present.
	Reading(t time.Time, vals map[models.Indicator]float64) models.SignalReading
}
