package countervalue

import (
	"time"

	"github.com/BenAffleck/ledger-live-common/internal/currency"
)

// Pair is a directed currency pair: rates answer "how much To is one
// From worth".
type Pair struct {
	From currency.Currency `json:"from"`
	To   currency.Currency `json:"to"`
}

// Key returns the canonical identity of the pair. Direction matters:
// BTC-USD and USD-BTC are distinct pairs.
func (p Pair) Key() string {
	return p.From.Ticker + "-" + p.To.Ticker
}

// TrackingPair is a request to keep countervalues for a pair synced
// from StartDate (nil means "since inception").
type TrackingPair struct {
	From      currency.Currency
	To        currency.Currency
	StartDate *time.Time
}

// Pair returns the tracked pair.
func (t TrackingPair) Pair() Pair { return Pair{From: t.From, To: t.To} }

// Key returns the canonical pair key.
func (t TrackingPair) Key() string { return t.Pair().Key() }

// Resolver supplies the currency-level rules the engine delegates:
// countervalue aliasing, tracking normalization and enablement.
type Resolver interface {
	Alias(c currency.Currency) currency.Currency
	ResolveTracking(c currency.Currency) currency.Currency
	Enabled(c currency.Currency) bool
}

// ResolveTrackingPairs normalizes and deduplicates tracking requests.
// Disabled and identity pairs are dropped. Duplicates keep the oldest
// start date; a nil start date means "since inception" and dominates
// any concrete date.
func ResolveTrackingPairs(r Resolver, pairs []TrackingPair) []TrackingPair {
	keep := make(map[string]TrackingPair)
	order := make([]string, 0, len(pairs))

	for _, p := range pairs {
		from := r.ResolveTracking(p.From)
		to := r.ResolveTracking(p.To)
		if !r.Enabled(from) || !r.Enabled(to) {
			continue
		}
		if from.Ticker == to.Ticker {
			continue
		}

		resolved := TrackingPair{From: from, To: to, StartDate: p.StartDate}
		key := resolved.Key()
		existing, seen := keep[key]
		if !seen {
			keep[key] = resolved
			order = append(order, key)
			continue
		}
		keep[key] = TrackingPair{
			From:      from,
			To:        to,
			StartDate: olderStartDate(existing.StartDate, p.StartDate),
		}
	}

	out := make([]TrackingPair, 0, len(order))
	for _, key := range order {
		out = append(out, keep[key])
	}
	return out
}

// olderStartDate merges two optional start dates, keeping the older
// bound. nil arises when a pair has no per-account anchor and means
// "since inception", so it wins over any concrete date.
func olderStartDate(a, b *time.Time) *time.Time {
	if a == nil || b == nil {
		return nil
	}
	if b.Before(*a) {
		return b
	}
	return a
}
