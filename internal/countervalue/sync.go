package countervalue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BenAffleck/ledger-live-common/internal/batch"
)

// HistoricalFetcher retrieves the historical rates of one pair from its
// start date onward at the given granularity.
type HistoricalFetcher interface {
	FetchHistorical(ctx context.Context, g Granularity, pair TrackingPair) (RateMap, error)
}

// LatestFetcher retrieves the current spot rate for every pair in one
// batched call. The result is positionally aligned with pairs.
type LatestFetcher interface {
	FetchLatest(ctx context.Context, pairs []Pair) ([]float64, error)
}

// MetricsRecorder receives sync pass observations. Implementations must
// be safe for concurrent use.
type MetricsRecorder interface {
	RecordPass(duration time.Duration, jobs, changed int)
	RecordFetch(g Granularity, ok bool)
	RecordBackoffSkip(g Granularity)
	RecordLatestUpdates(n int)
}

// Engine runs synchronization passes and answers rate and conversion
// queries. It holds no state of its own: every pass maps a snapshot to
// a new snapshot, and callers own both.
type Engine struct {
	historical HistoricalFetcher
	latest     LatestFetcher
	resolver   Resolver
	settings   Settings
	metrics    MetricsRecorder
	now        func() time.Time
}

// NewEngine creates an engine with default settings and the system
// clock.
func NewEngine(historical HistoricalFetcher, latest LatestFetcher, resolver Resolver, opts ...Option) *Engine {
	e := &Engine{
		historical: historical,
		latest:     latest,
		resolver:   resolver,
		settings:   DefaultSettings(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithSettings replaces the default sync settings.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// WithClock injects the time source, for deterministic passes in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// Settings returns the engine's settings.
func (e *Engine) Settings() Settings { return e.settings }

// Now returns the engine's current time.
func (e *Engine) Now() time.Time { return e.now() }

// Resolve normalizes and deduplicates tracking requests with the
// engine's resolver.
func (e *Engine) Resolve(pairs []TrackingPair) []TrackingPair {
	return ResolveTrackingPairs(e.resolver, pairs)
}

// Sync runs one synchronization pass: plan due windows, fetch them with
// bounded concurrency alongside one batched latest-rate call, merge
// whatever succeeded, and rebuild the derived cache for changed pairs.
// The pass never fails; individual fetch errors only update per-pair
// status and are logged. prev is left untouched.
func (e *Engine) Sync(ctx context.Context, prev *State, rawPairs []TrackingPair) *State {
	started := e.now()
	pairs := ResolveTrackingPairs(e.resolver, rawPairs)

	var skipped func(Granularity)
	if e.metrics != nil {
		skipped = e.metrics.RecordBackoffSkip
	}
	jobs := plan(prev, pairs, e.settings, started, skipped)

	// Both branches run concurrently; the pass completes only once both
	// have settled, whatever the individual outcomes.
	var (
		histResults []batch.Result[RateMap]
		latestRates []float64
		latestErr   error
	)
	var g errgroup.Group
	g.Go(func() error {
		histResults = batch.Run(ctx, e.settings.Concurrency, jobs,
			func(ctx context.Context, job fetchJob) (RateMap, error) {
				return e.historical.FetchHistorical(ctx, job.granularity, job.pair)
			})
		return nil
	})
	if len(pairs) > 0 {
		g.Go(func() error {
			ps := make([]Pair, len(pairs))
			for i, p := range pairs {
				ps[i] = p.Pair()
			}
			latestRates, latestErr = e.latest.FetchLatest(ctx, ps)
			return nil
		})
	}
	_ = g.Wait()

	// All I/O has settled; merge sequentially into a fresh snapshot.
	now := e.now()
	next := prev.clone()
	changed := make(map[string]struct{})

	for i, job := range jobs {
		res := histResults[i]
		if res.Err != nil {
			e.recordFailure(next, job, res.Err, now)
			continue
		}
		if e.metrics != nil {
			e.metrics.RecordFetch(job.granularity, true)
		}
		if len(res.Value) > 0 {
			next.Data[job.key] = next.Data[job.key].merge(res.Value)
			changed[job.key] = struct{}{}
		}
		status := next.Status[job.key]
		status.Timestamp = now
		status.Failures = 0
		if requested := *job.pair.StartDate; status.OldestDateRequested.IsZero() ||
			requested.Before(status.OldestDateRequested) {
			status.OldestDateRequested = requested
		}
		next.Status[job.key] = status
	}

	switch {
	case latestErr != nil:
		// Treated as "no latest updates"; historical results stand.
		slog.Warn("countervalues: latest rates fetch failed", "error", latestErr)
	case latestRates != nil:
		updates := 0
		for i, p := range pairs {
			if i >= len(latestRates) {
				break
			}
			v := latestRates[i]
			key := p.Key()
			if v == 0 || v == next.Data[key][KeyLatest] {
				continue
			}
			next.Data[key] = next.Data[key].merge(RateMap{KeyLatest: v})
			changed[key] = struct{}{}
			updates++
		}
		if e.metrics != nil {
			e.metrics.RecordLatestUpdates(updates)
		}
	}

	for key := range changed {
		next.Cache[key] = BuildCache(next.Data[key], e.settings, now)
	}

	slog.Info("countervalues: sync pass done",
		"pairs", len(pairs), "jobs", len(jobs), "changed", len(changed))
	if e.metrics != nil {
		e.metrics.RecordPass(e.now().Sub(started), len(jobs), len(changed))
	}
	return next
}

// recordFailure applies the error taxonomy: HTTP-status failures grow
// the backoff streak, transport failures are retried next pass as-is.
func (e *Engine) recordFailure(next *State, job fetchJob, err error, now time.Time) {
	if e.metrics != nil {
		e.metrics.RecordFetch(job.granularity, false)
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		status := next.Status[job.key]
		status.Failures++
		status.Timestamp = now
		next.Status[job.key] = status
		slog.Warn("countervalues: historical fetch failed",
			"pair", job.key, "granularity", string(job.granularity),
			"status", httpErr.Status, "failures", status.Failures)
		return
	}
	slog.Warn("countervalues: historical fetch failed, will retry",
		"pair", job.key, "granularity", string(job.granularity), "error", err)
}
