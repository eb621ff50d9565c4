package models

import (
	"fmt"
	"strings"
	"time"
)

// Period is a look-back window for returns analysis.
type Period string

const (
	Period1Y  Period = "1Y"
	Period3Y  Period = "3Y"
	Period5Y  Period = "5Y"
	Period10Y Period = "10Y"
	PeriodAll Period = "ALL"
)

// Periods lists the supported periods in ascending length.
func Periods() []Period { return []Period{Period1Y, Period3Y, Period5Y, Period10Y, PeriodAll} }

// ParsePeriod accepts a case-insensitive period label.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	if p.IsValid() {
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

func (p Period) IsValid() bool {
	switch p {
	case Period1Y, Period3Y, Period5Y, Period10Y, PeriodAll:
		return true
	}
	return false
}

// Years returns the window length in whole years, 0 for ALL.
func (p Period) Years() int {
	switch p {
	case Period1Y:
		return 1
	case Period3Y:
		return 3
	case Period5Y:
		return 5
	case Period10Y:
		return 10
	}
	return 0
}

// Start returns the window start for end. ALL has an open (zero) start.
func (p Period) Start(end time.Time) time.Time {
	y := p.Years()
	if y == 0 {
		return time.Time{}
	}
	return end.AddDate(-y, 0, 0)
}
