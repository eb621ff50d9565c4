package fallback

import "strings"

// Asset describes a tradable asset and the parameters of its synthetic price path.
type Asset struct {
	Symbol      string
	DisplayName string
	BasePrice   float64
	Drift       float64 // annual
	Volatility  float64 // annual
	Crypto      bool
}

var defaultAssets = []Asset{
	{"SPY", "SPDR S&P 500 ETF", 300, 0.10, 0.15, false},
	{"QQQ", "Invesco QQQ (Nasdaq-100)", 250, 0.12, 0.20, false},
	{"VOO", "Vanguard S&P 500 ETF", 280, 0.09, 0.14, false},
	{"IWM", "iShares Russell 2000 ETF", 180, 0.08, 0.22, false},
	{"VTI", "Vanguard Total Stock Market ETF", 200, 0.09, 0.15, false},
	{"DIA", "SPDR Dow Jones Industrial Average ETF", 320, 0.07, 0.16, false},
	{"BTC-USD", "Bitcoin", 40000, 0.30, 0.80, true},
	{"GLD", "SPDR Gold Shares", 170, 0.05, 0.18, false},
	{"SLV", "iShares Silver Trust", 22, 0.06, 0.25, false},
	{"TLT", "iShares 20+ Year Treasury Bond ETF", 140, 0.03, 0.12, false},
	{"AAPL", "Apple Inc.", 150, 0.15, 0.25, false},
	{"GOOGL", "Alphabet Inc.", 2500, 0.13, 0.22, false},
	{"MSFT", "Microsoft Corporation", 300, 0.14, 0.20, false},
	{"AMZN", "Amazon.com Inc.", 3200, 0.12, 0.24, false},
	{"TSLA", "Tesla Inc.", 800, 0.20, 0.50, false},
	{"NVDA", "NVIDIA Corporation", 220, 0.25, 0.35, false},
}

// DefaultAssets returns the default basket in display order.
func DefaultAssets() []Asset {
	out := make([]Asset, len(defaultAssets))
	copy(out, defaultAssets)
	return out
}

// DefaultSymbols returns the symbols of the default basket.
func DefaultSymbols() []string {
	out := make([]string, len(defaultAssets))
	for i, a := range defaultAssets {
		out[i] = a.Symbol
	}
	return out
}

// LookupAsset finds symbol in the default basket.
func LookupAsset(symbol string) (Asset, bool) {
	s := strings.ToUpper(symbol)
	for _, a := range defaultAssets {
		if a.Symbol == s {
			return a, true
		}
	}
	return Asset{}, false
}

// DisplayName returns the human-readable name of symbol, or the symbol itself.
func DisplayName(symbol string) string {
	if a, ok := LookupAsset(symbol); ok {
		return a.DisplayName
	}
	return symbol
}
