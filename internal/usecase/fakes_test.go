package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"MoneyPulse/internal/domain/models"
)

var errBoom = errors.New("boom")

// fakeAdapter serves rows from a generator function and counts calls per identifier.
type fakeAdapter struct {
	name  string
	rows  func(id string, start, end time.Time) []models.RawRow
	err   error
	block bool

	mu    sync.Mutex
	calls map[string]int
}

func newFakeAdapter(name string, rows func(id string, start, end time.Time) []models.RawRow) *fakeAdapter {
	return &fakeAdapter{name: name, rows: rows, calls: map[string]int{}}
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) FetchSeries(ctx context.Context, id string, start, end time.Time) ([]models.RawRow, error) {
	f.mu.Lock()
	f.calls[id]++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.rows(id, start, end), nil
}

func (f *fakeAdapter) Ping(context.Context) error { return f.err }

func (f *fakeAdapter) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

// monthlyRows grows from base at an annual rate g, first of each month in [start, end].
func monthlyRows(base, g float64) func(string, time.Time, time.Time) []models.RawRow {
	return func(_ string, start, end time.Time) []models.RawRow {
		var out []models.RawRow
		t := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		if t.Before(start) {
			t = t.AddDate(0, 1, 0)
		}
		v := base
		for ; !t.After(end); t = t.AddDate(0, 1, 0) {
			out = append(out, models.RawRow{Date: t, Value: v})
			v *= math.Pow(1+g, 1.0/12)
		}
		return out
	}
}

// dailyRows grows linearly by step per calendar day from base.
func dailyRows(base, step float64) func(string, time.Time, time.Time) []models.RawRow {
	return func(_ string, start, end time.Time) []models.RawRow {
		var out []models.RawRow
		v := base
		for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
			out = append(out, models.RawRow{Date: t, Value: v})
			v += step
		}
		return out
	}
}

type recordingMetrics struct {
	mu      sync.Mutex
	fetches map[string]int
	cache   map[string]int
	signals []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{fetches: map[string]int{}, cache: map[string]int{}}
}

func (m *recordingMetrics) RecordFetch(provider, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[provider+"/"+outcome]++
}

func (m *recordingMetrics) RecordCache(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[result]++
}

func (m *recordingMetrics) RecordError(string)            {}
func (m *recordingMetrics) RecordLatency(string, float64) {}

func (m *recordingMetrics) RecordSignal(level string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, level)
}

type capturePublisher struct {
	mu       sync.Mutex
	readings []models.SignalReading
}

func (p *capturePublisher) PublishReading(_ context.Context, r models.SignalReading) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readings = append(p.readings, r)
	return nil
}

func (p *capturePublisher) Close() error { return nil }
