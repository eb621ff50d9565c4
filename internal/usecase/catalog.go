package usecase

import (
	"strings"

	"MoneyPulse/internal/service/coingecko"
	"MoneyPulse/internal/service/fred"
	"MoneyPulse/internal/service/yahoo"
)

// Macro series names used across the pipeline.
const (
	SeriesCPI      = "CPI"
	SeriesM2       = "M2"
	SeriesVelocity = "VELOCITY"
	SeriesGDP      = "GDP"
)

// MacroSeries lists the inputs of the quantity-theory price level plus CPI.
var MacroSeries = []string{SeriesCPI, SeriesM2, SeriesVelocity, SeriesGDP}

// Route tells which provider serves a series and under which identifier.
type Route struct {
	Provider   string
	Identifier string
}

// Router resolves a series name to its route.
type Router func(name string) Route

var fredSeries = map[string]string{
	SeriesCPI:      "CPIAUCSL",
	SeriesM2:       "M2SL",
	SeriesVelocity: "M2V",
	SeriesGDP:      "GDPC1",
}

// DefaultRoute sends macro series to FRED, known crypto tickers to CoinGecko and
// everything else to Yahoo.
func DefaultRoute(name string) Route {
	if id, ok := fredSeries[strings.ToUpper(name)]; ok {
		return Route{Provider: fred.Name, Identifier: id}
	}
	if coingecko.IsCrypto(name) {
		return Route{Provider: coingecko.Name, Identifier: name}
	}
	return Route{Provider: yahoo.Name, Identifier: name}
}
