package models

import "errors"

var (
	// ErrProviderUnavailable is returned by adapters on network, rate limit or payload failures.
	// The acquisition layer recovers from it with a fallback series.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrSeriesUnavailable marks a series that could not be produced at all.
	ErrSeriesUnavailable = errors.New("series unavailable")
	// ErrInsufficientAlignment means the quantity-theory inputs share no usable dates.
	ErrInsufficientAlignment = errors.New("insufficient alignment")
	// ErrDegenerateInput marks a computation whose inputs make the result undefined.
	ErrDegenerateInput = errors.New("degenerate input")
	// ErrInvalidRange is returned for start after end.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrEmptyPayload is returned when a provider answers with no usable rows.
	ErrEmptyPayload = errors.New("empty payload")
)
