package countervalue

import (
	"time"
)

// RateMapStats summarize the date coverage of a raw rate map. Oldest and
// Newest are bucket keys; lexicographic extremes equal chronological
// extremes because bucket keys are fixed-width.
type RateMapStats struct {
	Oldest     string
	Newest     string
	OldestDate time.Time
	NewestDate time.Time
}

// PairCache is the lookup-ready derivative of one pair's raw rate map:
// gap-filled map, coverage stats and the fallback rate for queries that
// predate all known data. It is recomputed whenever the raw map
// changes and never persisted.
type PairCache struct {
	Map      RateMap
	Stats    RateMapStats
	Fallback float64
}

// computeStats scans a raw map for its extreme bucket keys, ignoring
// the KeyLatest sentinel.
func computeStats(m RateMap) RateMapStats {
	var stats RateMapStats
	for k := range m {
		if k == KeyLatest {
			continue
		}
		if stats.Oldest == "" || k < stats.Oldest {
			stats.Oldest = k
		}
		if stats.Newest == "" || k > stats.Newest {
			stats.Newest = k
		}
	}
	if stats.Oldest != "" {
		stats.OldestDate, _ = ParseBucket(stats.Oldest)
		stats.NewestDate, _ = ParseBucket(stats.Newest)
	}
	return stats
}

// BuildCache derives the lookup structure for one pair. With
// AutofillGaps enabled, missing daily buckets between the oldest known
// day and now carry the last known value forward, and a missing latest
// takes the last carried value. Hourly buckets are never filled; they
// fall back to daily resolution at query time. Recomputation is
// idempotent given the same raw map and settings.
func BuildCache(raw RateMap, settings Settings, now time.Time) *PairCache {
	stats := computeStats(raw)

	if !settings.AutofillGaps || stats.Oldest == "" {
		return &PairCache{
			Map:      raw,
			Stats:    stats,
			Fallback: raw[KeyLatest],
		}
	}

	filled := make(RateMap, len(raw))
	for k, v := range raw {
		filled[k] = v
	}

	fallback := raw[stats.Oldest]
	last := fallback
	for d := stats.OldestDate; !d.After(now); d = d.AddDate(0, 0, 1) {
		key := Daily.BucketKey(d)
		if v, ok := filled[key]; ok {
			last = v
			continue
		}
		filled[key] = last
	}
	if _, ok := filled[KeyLatest]; !ok {
		filled[KeyLatest] = last
	}

	return &PairCache{
		Map:      filled,
		Stats:    stats,
		Fallback: fallback,
	}
}
