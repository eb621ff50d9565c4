package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Provenance tells where a series in a Dataset came from.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenanceFallback Provenance = "fallback"
)

// SeriesCatalogEntry describes how a series in a Dataset was obtained.
type SeriesCatalogEntry struct {
	Name           string     `json:"name"`
	Provider       string     `json:"provider"`
	Identifier     string     `json:"identifier,omitempty"`
	FetchedAt      time.Time  `json:"fetched_at"`
	Provenance     Provenance `json:"provenance"`
	Cached         bool       `json:"cached"`
	Reason         string     `json:"reason,omitempty"`
	RequestedStart time.Time  `json:"requested_start"`
	RequestedEnd   time.Time  `json:"requested_end"`
	ActualStart    time.Time  `json:"actual_start"`
	ActualEnd      time.Time  `json:"actual_end"`
	Points         int        `json:"points"`
}

// Dataset is a set of named series with their catalog entries.
// A missing name means the series is unavailable; there are no empty placeholders.
type Dataset struct {
	mu      sync.RWMutex
	series  map[string]TimeSeries
	catalog map[string]SeriesCatalogEntry
	failed  map[string]string
}

func NewDataset() *Dataset {
	return &Dataset{
		series:  make(map[string]TimeSeries),
		catalog: make(map[string]SeriesCatalogEntry),
		failed:  make(map[string]string),
	}
}

// Put stores a series and its catalog entry. Empty series are recorded as unavailable.
func (d *Dataset) Put(ts TimeSeries, entry SeriesCatalogEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ts.Empty() {
		d.failed[ts.Name] = "empty series"
		return
	}
	entry.Name = ts.Name
	entry.Points = ts.Len()
	entry.ActualStart = ts.Points[0].Time
	entry.ActualEnd = ts.Points[len(ts.Points)-1].Time
	d.series[ts.Name] = ts.Clone()
	d.catalog[ts.Name] = entry
	delete(d.failed, ts.Name)
}

// MarkUnavailable records why a requested series is absent.
func (d *Dataset) MarkUnavailable(name, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.series[name]; ok {
		return
	}
	d.failed[name] = reason
}

// Series returns a copy of the named series.
func (d *Dataset) Series(name string) (TimeSeries, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ts, ok := d.series[name]
	if !ok {
		return TimeSeries{}, false
	}
	return ts.Clone(), true
}

// Entry returns the catalog entry of the named series.
func (d *Dataset) Entry(name string) (SeriesCatalogEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.catalog[name]
	return e, ok
}

func (d *Dataset) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.series[name]
	return ok
}

// Names returns the available series names, sorted.
func (d *Dataset) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.series))
	for k := range d.series {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Unavailable returns requested names that could not be produced with their reason.
func (d *Dataset) Unavailable() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.failed))
	for k, v := range d.failed {
		out[k] = v
	}
	return out
}

// Missing returns the subset of names not present in the dataset.
func (d *Dataset) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !d.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Require fails with ErrSeriesUnavailable when any of names is absent.
func (d *Dataset) Require(names ...string) error {
	missing := d.Missing(names...)
	if len(missing) == 0 {
		return nil
	}
	return &MissingSeriesError{Names: missing}
}

// Catalog returns all catalog entries ordered by name.
func (d *Dataset) Catalog() []SeriesCatalogEntry {
	names := d.Names()
	out := make([]SeriesCatalogEntry, 0, len(names))
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, n := range names {
		out = append(out, d.catalog[n])
	}
	return out
}

type datasetJSON struct {
	Series      map[string]TimeSeries `json:"series"`
	Catalog     []SeriesCatalogEntry  `json:"catalog"`
	Unavailable map[string]string     `json:"unavailable,omitempty"`
}

func (d *Dataset) MarshalJSON() ([]byte, error) {
	d.mu.RLock()
	series := make(map[string]TimeSeries, len(d.series))
	for k, v := range d.series {
		series[k] = v
	}
	d.mu.RUnlock()
	return json.Marshal(datasetJSON{
		Series:      series,
		Catalog:     d.Catalog(),
		Unavailable: d.Unavailable(),
	})
}

// MissingSeriesError lists the required series that were not available.
type MissingSeriesError struct {
	Names []string
}

func (e *MissingSeriesError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSeriesUnavailable, strings.Join(e.Names, ", "))
}

func (e *MissingSeriesError) Unwrap() error { return ErrSeriesUnavailable }
