package models

import (
	"math"
	"strconv"
)

// Metric is a float that may be undefined. NaN and infinities encode as JSON null.
type Metric float64

// Undefined is the NaN metric.
func Undefined() Metric { return Metric(math.NaN()) }

func (m Metric) Defined() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (m Metric) Float() float64 { return float64(m) }

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(m), 'g', -1, 64), nil
}

func (m *Metric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Undefined()
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}
