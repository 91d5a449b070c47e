package countervalue

import (
	"math"
	"time"

	"github.com/BenAffleck/ledger-live-common/internal/currency"
)

// Value is a countervalue result. Valid is false when no rate could be
// resolved; callers must not read Amount in that case.
type Value struct {
	Amount float64 `json:"amount"`
	Valid  bool    `json:"valid"`
}

// CalculateQuery describes one conversion. Value is expressed in the
// smallest unit of From (or of To when Reverse is set).
type CalculateQuery struct {
	Value           float64
	From            currency.Currency
	To              currency.Currency
	Date            *time.Time
	Reverse         bool
	DisableRounding bool
}

// DataPoint is one entry of a batched conversion.
type DataPoint struct {
	Value float64
	Date  *time.Time
}

// Calculate converts a value between two currencies using the rate
// cached for the pair. An identity pair passes the value through
// untouched. A disabled currency, a missing cache entry, or a missing
// or zero rate yields an invalid Value, never an error.
func (e *Engine) Calculate(s *State, q CalculateQuery) Value {
	from := e.resolver.Alias(q.From)
	to := e.resolver.Alias(q.To)
	if from.Ticker == to.Ticker {
		return Value{Amount: q.Value, Valid: true}
	}

	cache := e.pairCache(s, from, to)
	if cache == nil {
		return Value{}
	}
	rate, ok := cache.Rate(q.Date)
	if !ok || rate == 0 {
		return Value{}
	}
	return convert(q.Value, rate, from, to, q.Reverse, q.DisableRounding)
}

// CalculateMany converts a series of points sharing one pair. Aliasing
// and cache resolution happen once; each point then converts with its
// own date. The result always has the same length as points.
func (e *Engine) CalculateMany(s *State, points []DataPoint, q CalculateQuery) []Value {
	out := make([]Value, len(points))

	from := e.resolver.Alias(q.From)
	to := e.resolver.Alias(q.To)
	if from.Ticker == to.Ticker {
		for i, p := range points {
			out[i] = Value{Amount: p.Value, Valid: true}
		}
		return out
	}

	cache := e.pairCache(s, from, to)
	if cache == nil {
		return out
	}
	for i, p := range points {
		rate, ok := cache.Rate(p.Date)
		if !ok || rate == 0 {
			continue
		}
		out[i] = convert(p.Value, rate, from, to, q.Reverse, q.DisableRounding)
	}
	return out
}

// pairCache locates the derived cache for an aliased pair, checking
// that both sides are countervalue-enabled.
func (e *Engine) pairCache(s *State, from, to currency.Currency) *PairCache {
	if !e.resolver.Enabled(from) || !e.resolver.Enabled(to) {
		return nil
	}
	return s.Cache[Pair{From: from, To: to}.Key()]
}

func convert(value, rate float64, from, to currency.Currency, reverse, disableRounding bool) Value {
	var val float64
	if reverse {
		val = value / rate * magnitudeRatio(to, from)
	} else {
		val = value * rate * magnitudeRatio(from, to)
	}
	if !disableRounding {
		val = math.Round(val)
	}
	return Value{Amount: val, Valid: true}
}

// magnitudeRatio scales between the smallest units of two currencies.
func magnitudeRatio(from, to currency.Currency) float64 {
	return math.Pow(10, float64(to.Magnitude-from.Magnitude))
}
