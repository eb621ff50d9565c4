package models

import "time"

// FetchKind is the outcome of fetching a single series.
type FetchKind int

const (
	FetchUnavailable FetchKind = iota
	FetchLive
	FetchFallback
)

func (k FetchKind) String() string {
	switch k {
	case FetchLive:
		return "live"
	case FetchFallback:
		return "fallback"
	default:
		return "unavailable"
	}
}

// FetchResult is the tagged outcome of one series fetch.
// Series is only meaningful for Live and Fallback; Reason is set for Fallback and Unavailable.
type FetchResult struct {
	Kind       FetchKind
	Series     TimeSeries
	Provider   string
	Identifier string
	Cached     bool
	FetchedAt  time.Time
	Reason     error
}

func LiveResult(ts TimeSeries, provider, identifier string, cached bool, at time.Time) FetchResult {
	return FetchResult{Kind: FetchLive, Series: ts, Provider: provider, Identifier: identifier, Cached: cached, FetchedAt: at}
}

func FallbackResult(ts TimeSeries, reason error, at time.Time) FetchResult {
	return FetchResult{Kind: FetchFallback, Series: ts, Provider: "synthetic", Reason: reason, FetchedAt: at}
}

func UnavailableResult(reason error) FetchResult {
	return FetchResult{Kind: FetchUnavailable, Reason: reason}
}

// Entry builds the catalog entry describing this result.
func (r FetchResult) Entry(start, end time.Time) SeriesCatalogEntry {
	e := SeriesCatalogEntry{
		Provider:       r.Provider,
		Identifier:     r.Identifier,
		FetchedAt:      r.FetchedAt,
		Cached:         r.Cached,
		RequestedStart: start,
		RequestedEnd:   end,
		Provenance:     ProvenanceLive,
	}
	if r.Kind == FetchFallback {
		e.Provenance = ProvenanceFallback
	}
	if r.Reason != nil {
		e.Reason = r.Reason.Error()
	}
	return e
}
