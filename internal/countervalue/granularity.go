package countervalue

import (
	"fmt"
	"time"
)

// Granularity is the time resolution rates are bucketed at.
type Granularity string

const (
	Daily  Granularity = "daily"
	Hourly Granularity = "hourly"
)

// Granularities lists every supported granularity in scheduling order.
var Granularities = []Granularity{Daily, Hourly}

// KeyLatest is the reserved bucket key holding the most recent spot rate.
const KeyLatest = "latest"

const (
	dailyBucketFormat  = "2006-01-02"
	hourlyBucketFormat = "2006-01-02T15"
)

// BucketKey formats t as a fixed-width bucket key. The widths are chosen
// so that lexicographic order of keys equals chronological order; stats
// computation and lookup depend on this.
func (g Granularity) BucketKey(t time.Time) string {
	switch g {
	case Hourly:
		return t.UTC().Format(hourlyBucketFormat)
	default:
		return t.UTC().Format(dailyBucketFormat)
	}
}

// ParseBucket parses a bucket key of either granularity. The KeyLatest
// sentinel is not a date and yields an error.
func ParseBucket(key string) (time.Time, error) {
	if t, err := time.Parse(dailyBucketFormat, key); err == nil {
		return t, nil
	}
	if t, err := time.Parse(hourlyBucketFormat, key); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid bucket key %q", key)
}

// Settings tune a sync pass and the derived cache.
type Settings struct {
	// AutofillGaps enables daily forward-fill in the derived cache.
	AutofillGaps bool
	// DatapointLimits bound how far back history is ever requested, per
	// granularity.
	DatapointLimits map[Granularity]time.Duration
	// Concurrency caps in-flight historical fetches in one pass.
	Concurrency int
}

// DefaultSettings returns the settings used in production: gap autofill
// on, ten years of daily history, one week of hourly history, ten
// concurrent fetches.
func DefaultSettings() Settings {
	return Settings{
		AutofillGaps: true,
		DatapointLimits: map[Granularity]time.Duration{
			Daily:  10 * 365 * 24 * time.Hour,
			Hourly: 7 * 24 * time.Hour,
		},
		Concurrency: 10,
	}
}
