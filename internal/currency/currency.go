// Package currency holds the currency units known to the countervalues
// engine: their tickers, magnitudes (decimal scale of the main unit) and
// countervalue tracking rules (aliasing and enablement).
package currency

import (
	"fmt"
	"strings"
)

// Currency identifies a fiat or crypto currency. Magnitude is the number
// of decimal digits between the smallest unit and the main unit (8 for
// BTC satoshis, 2 for USD cents).
type Currency struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	Magnitude int32  `json:"magnitude"`
	Disabled  bool   `json:"disabled,omitempty"`
}

// IsZero reports whether c is the empty currency.
func (c Currency) IsZero() bool { return c.Ticker == "" }

// Registry resolves tickers to currencies and applies countervalue
// aliasing (e.g. stablecoins tracked through the fiat they peg).
type Registry struct {
	byTicker map[string]Currency
	aliases  map[string]string
}

// NewRegistry creates a registry pre-loaded with the default currency
// set. Additional currencies can be added with Add.
func NewRegistry() *Registry {
	r := &Registry{
		byTicker: make(map[string]Currency),
		aliases:  make(map[string]string),
	}
	for _, c := range defaultCurrencies {
		r.Add(c)
	}
	for from, to := range defaultAliases {
		r.AddAlias(from, to)
	}
	return r
}

var defaultCurrencies = []Currency{
	{Ticker: "BTC", Name: "Bitcoin", Magnitude: 8},
	{Ticker: "ETH", Name: "Ethereum", Magnitude: 18},
	{Ticker: "LTC", Name: "Litecoin", Magnitude: 8},
	{Ticker: "DOGE", Name: "Dogecoin", Magnitude: 8},
	{Ticker: "XRP", Name: "XRP", Magnitude: 6},
	{Ticker: "USDT", Name: "Tether", Magnitude: 6},
	{Ticker: "USDC", Name: "USD Coin", Magnitude: 6},
	{Ticker: "WETH", Name: "Wrapped Ether", Magnitude: 18},
	{Ticker: "USD", Name: "US Dollar", Magnitude: 2},
	{Ticker: "EUR", Name: "Euro", Magnitude: 2},
	{Ticker: "GBP", Name: "British Pound", Magnitude: 2},
	{Ticker: "JPY", Name: "Japanese Yen", Magnitude: 0},
	{Ticker: "TRY", Name: "Turkish Lira", Magnitude: 2},
	// Test/dev networks never have a market price.
	{Ticker: "TBTC", Name: "Bitcoin Testnet", Magnitude: 8, Disabled: true},
}

// Countervalues for pegged or wrapped assets are tracked through the
// asset they track.
var defaultAliases = map[string]string{
	"USDT": "USD",
	"USDC": "USD",
	"WETH": "ETH",
}

// Add registers a currency, replacing any previous entry with the same
// ticker.
func (r *Registry) Add(c Currency) {
	r.byTicker[strings.ToUpper(c.Ticker)] = c
}

// AddAlias declares that countervalues for ticker from are tracked as
// ticker to.
func (r *Registry) AddAlias(from, to string) {
	r.aliases[strings.ToUpper(from)] = strings.ToUpper(to)
}

// Get returns the currency for a ticker (case-insensitive).
func (r *Registry) Get(ticker string) (Currency, error) {
	c, ok := r.byTicker[strings.ToUpper(ticker)]
	if !ok {
		return Currency{}, fmt.Errorf("unknown currency %q", ticker)
	}
	return c, nil
}

// Alias maps a currency to the one its countervalue is tracked as.
// Currencies without an alias map to themselves.
func (r *Registry) Alias(c Currency) Currency {
	target, ok := r.aliases[strings.ToUpper(c.Ticker)]
	if !ok {
		return c
	}
	if aliased, ok := r.byTicker[target]; ok {
		return aliased
	}
	return c
}

// ResolveTracking normalizes a currency for tracking purposes,
// applying the alias table.
func (r *Registry) ResolveTracking(c Currency) Currency {
	return r.Alias(c)
}

// Enabled reports whether countervalues may be tracked for c.
func (r *Registry) Enabled(c Currency) bool {
	return !c.Disabled && !c.IsZero()
}
