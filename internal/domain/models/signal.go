package models

import (
	"fmt"
	"strings"
	"time"
)

// AlertLevel is the classification of a composite debasement score.
type AlertLevel int

const (
	AlertNone AlertLevel = iota
	AlertWatch
	AlertElevated
	AlertHigh
)

func (l AlertLevel) String() string {
	switch l {
	case AlertWatch:
		return "WATCH"
	case AlertElevated:
		return "ELEVATED"
	case AlertHigh:
		return "HIGH"
	default:
		return "NONE"
	}
}

// ParseAlertLevel parses a level name.
func ParseAlertLevel(s string) (AlertLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return AlertNone, nil
	case "WATCH":
		return AlertWatch, nil
	case "ELEVATED":
		return AlertElevated, nil
	case "HIGH":
		return AlertHigh, nil
	}
	return AlertNone, fmt.Errorf("unknown alert level %q", s)
}

func (l AlertLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *AlertLevel) UnmarshalText(b []byte) error {
	v, err := ParseAlertLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Indicator names the inputs of the composite score.
type Indicator string

const (
	IndicatorDivergence   Indicator = "inflation_divergence"
	IndicatorMomentum     Indicator = "hedge_momentum"
	IndicatorAcceleration Indicator = "money_acceleration"
)

// Indicators lists the indicators in composite order.
func Indicators() []Indicator {
	return []Indicator{IndicatorDivergence, IndicatorMomentum, IndicatorAcceleration}
}

// Label is the human readable name used in recommendations.
func (i Indicator) Label() string {
	switch i {
	case IndicatorDivergence:
		return "inflation divergence"
	case IndicatorMomentum:
		return "hedge-asset momentum"
	case IndicatorAcceleration:
		return "money-supply acceleration"
	}
	return string(i)
}

// SignalReading is the classification at one timestamp. Indicator scores are nil
// when the underlying data was missing at that timestamp.
type SignalReading struct {
	Time                   time.Time  `json:"time"`
	DivergenceScore        *float64   `json:"divergence_score"`
	MomentumScore          *float64   `json:"momentum_score"`
	MoneyAccelerationScore *float64   `json:"money_acceleration_score"`
	Composite              float64    `json:"composite"`
	Level                  AlertLevel `json:"level"`
	DominantDriver         Indicator  `json:"dominant_driver,omitempty"`
	Recommendation         string     `json:"recommendation"`
	NoData                 bool       `json:"no_data"`
}

// Score returns the score of indicator i, if present.
func (r SignalReading) Score(i Indicator) (float64, bool) {
	var p *float64
	switch i {
	case IndicatorDivergence:
		p = r.DivergenceScore
	case IndicatorMomentum:
		p = r.MomentumScore
	case IndicatorAcceleration:
		p = r.MoneyAccelerationScore
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// SignalReport is the result of a signal query over a range.
type SignalReport struct {
	Start    time.Time            `json:"start"`
	End      time.Time            `json:"end"`
	Readings []SignalReading      `json:"readings"`
	Latest   *SignalReading       `json:"latest,omitempty"`
	Catalog  []SeriesCatalogEntry `json:"catalog"`
	Missing  []string             `json:"missing,omitempty"`
}
