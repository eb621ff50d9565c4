package models

import (
	"math"
	"sort"
	"time"
)

// Point is a single timestamped observation.
type Point struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"v"`
}

// RawRow is the normalised row shape every source adapter returns.
type RawRow struct {
	Date  time.Time
	Value float64
}

// TimeSeries is an ordered sequence of points with strictly increasing timestamps.
// Gaps are allowed; values are always finite. Frequency is the number of periods per
// year when known by the producer (0 means infer from spacing).
type TimeSeries struct {
	Name      string  `json:"name"`
	Frequency float64 `json:"frequency,omitempty"`
	Points    []Point `json:"points"`
}

// NewTimeSeries builds a series from unordered points. Points are copied, sorted by time,
// duplicate timestamps keep the first occurrence and non-finite values are dropped.
func NewTimeSeries(name string, points []Point) TimeSeries {
	cp := make([]Point, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		cp = append(cp, p)
	}
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Time.Before(cp[j].Time) })

	out := cp[:0]
	for i, p := range cp {
		if i > 0 && p.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, p)
	}
	return TimeSeries{Name: name, Points: out}
}

// SeriesFromRows normalises adapter rows into a series.
func SeriesFromRows(name string, rows []RawRow) TimeSeries {
	pts := make([]Point, 0, len(rows))
	for _, r := range rows {
		pts = append(pts, Point{Time: r.Date.UTC(), Value: r.Value})
	}
	return NewTimeSeries(name, pts)
}

func (s TimeSeries) Len() int { return len(s.Points) }

func (s TimeSeries) Empty() bool { return len(s.Points) == 0 }

// First returns the earliest point.
func (s TimeSeries) First() (Point, bool) {
	if s.Empty() {
		return Point{}, false
	}
	return s.Points[0], true
}

// Last returns the latest point.
func (s TimeSeries) Last() (Point, bool) {
	if s.Empty() {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Times returns the timestamps in order.
func (s TimeSeries) Times() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Time
	}
	return out
}

// Values returns the values in time order.
func (s TimeSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Clone returns a deep copy so callers can never mutate a shared series.
func (s TimeSeries) Clone() TimeSeries {
	pts := make([]Point, len(s.Points))
	copy(pts, s.Points)
	return TimeSeries{Name: s.Name, Frequency: s.Frequency, Points: pts}
}

// Rename returns a copy under another name.
func (s TimeSeries) Rename(name string) TimeSeries {
	c := s.Clone()
	c.Name = name
	return c
}

// At returns the value at exactly t.
func (s TimeSeries) At(t time.Time) (float64, bool) {
	i := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Time.Before(t) })
	if i < len(s.Points) && s.Points[i].Time.Equal(t) {
		return s.Points[i].Value, true
	}
	return 0, false
}

// AtOrBefore returns the latest point whose timestamp is not after t.
func (s TimeSeries) AtOrBefore(t time.Time) (Point, bool) {
	i := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Time.After(t) })
	if i == 0 {
		return Point{}, false
	}
	return s.Points[i-1], true
}

// Between returns the points inside [start, end]. A zero bound is open.
func (s TimeSeries) Between(start, end time.Time) TimeSeries {
	pts := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}
		if !end.IsZero() && p.Time.After(end) {
			continue
		}
		pts = append(pts, p)
	}
	return TimeSeries{Name: s.Name, Frequency: s.Frequency, Points: pts}
}

// ForwardFill reindexes the series onto times, carrying the last known value forward.
// Times before the first observation are left out.
func (s TimeSeries) ForwardFill(times []time.Time) TimeSeries {
	return s.ForwardFillWithin(times, 0)
}

// ForwardFillWithin is ForwardFill with a bound on how old a carried value may be.
// Times whose latest observation is older than maxAge are left out; maxAge <= 0 means
// no bound.
func (s TimeSeries) ForwardFillWithin(times []time.Time, maxAge time.Duration) TimeSeries {
	pts := make([]Point, 0, len(times))
	for _, t := range times {
		p, ok := s.AtOrBefore(t)
		if !ok || (maxAge > 0 && t.Sub(p.Time) > maxAge) {
			continue
		}
		pts = append(pts, Point{Time: t, Value: p.Value})
	}
	out := NewTimeSeries(s.Name, pts)
	out.Frequency = s.Frequency
	return out
}
