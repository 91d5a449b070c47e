package countervalue

import (
	"math"
	"time"
)

// maxBackoff caps the failure-driven delay between attempts.
const maxBackoff = 7 * 24 * time.Hour

// backoffDelay returns how long a pair must wait after f consecutive
// HTTP failures: e^(f/2) seconds, capped at seven days.
func backoffDelay(f int) time.Duration {
	secs := math.Exp(float64(f) * 0.5)
	d := time.Duration(secs * float64(time.Second))
	if d > maxBackoff || d < 0 {
		return maxBackoff
	}
	return d
}

// fetchJob is one (granularity, pair) historical fetch to run.
type fetchJob struct {
	granularity Granularity
	pair        TrackingPair
	key         string
}

// plan computes which historical windows are due. Per (granularity,
// pair): skip while backing off, clamp the window start to the
// granularity's retention horizon, restart from the requested date when
// it is older than anything requested before, otherwise resume from the
// newest cached bucket, and skip entirely when the window has already
// reached the current bucket.
func plan(s *State, pairs []TrackingPair, settings Settings, now time.Time, skipped func(Granularity)) []fetchJob {
	var jobs []fetchJob

	for _, g := range Granularities {
		limit := settings.DatapointLimits[g]
		for _, p := range pairs {
			key := p.Key()
			status := s.Status[key]

			if status.Failures > 0 && !status.Timestamp.IsZero() {
				if now.Before(status.Timestamp.Add(backoffDelay(status.Failures))) {
					if skipped != nil {
						skipped(g)
					}
					continue
				}
			}

			start := now
			if p.StartDate != nil {
				start = *p.StartDate
			}
			if limit > 0 {
				if horizon := now.Add(-limit); start.Before(horizon) {
					start = horizon
				}
			}

			// A start older than anything requested before means earlier
			// passes never reached that far back: refetch from start even
			// if recent buckets are already cached.
			needOlder := !status.OldestDateRequested.IsZero() &&
				start.Before(status.OldestDateRequested)
			if !needOlder {
				if cache := s.Cache[key]; cache != nil && !cache.Stats.NewestDate.IsZero() &&
					cache.Stats.NewestDate.After(start) {
					start = cache.Stats.NewestDate
				}
			}

			if g.BucketKey(start) == g.BucketKey(now) {
				continue
			}

			startDate := start
			jobs = append(jobs, fetchJob{
				granularity: g,
				pair:        TrackingPair{From: p.From, To: p.To, StartDate: &startDate},
				key:         key,
			})
		}
	}
	return jobs
}
