package countervalue

import (
	"time"

	"github.com/BenAffleck/ledger-live-common/internal/currency"
)

// Rate resolves a rate from the cache at an optional date.
//
// Resolution order: nil date reads the latest spot rate; otherwise the
// hourly bucket, then the daily bucket, then the latest rate when the
// query is more recent than any cached data, and finally the fallback
// for queries predating all known data.
func (c *PairCache) Rate(at *time.Time) (float64, bool) {
	if c == nil {
		return 0, false
	}
	if at == nil {
		v, ok := c.Map[KeyLatest]
		return v, ok
	}
	if v, ok := c.Map[Hourly.BucketKey(*at)]; ok {
		return v, true
	}
	day := Daily.BucketKey(*at)
	if v, ok := c.Map[day]; ok {
		return v, true
	}
	if c.Stats.Newest != "" && day > c.Stats.Newest {
		v, ok := c.Map[KeyLatest]
		return v, ok
	}
	return c.Fallback, c.Fallback != 0
}

// Rate resolves the rate for a currency pair at an optional date,
// applying aliasing and the same enablement checks as a conversion.
func (e *Engine) Rate(s *State, from, to currency.Currency, at *time.Time) (float64, bool) {
	cache := e.pairCache(s, e.resolver.Alias(from), e.resolver.Alias(to))
	return cache.Rate(at)
}
