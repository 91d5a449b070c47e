// Package tracker owns the live countervalues snapshot: it runs the
// periodic sync loop, persists each new snapshot, and serves reads.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BenAffleck/ledger-live-common/internal/countervalue"
)

// StateRepository persists the countervalues truth between restarts.
type StateRepository interface {
	Save(ctx context.Context, s *countervalue.State) error
	Load(ctx context.Context, settings countervalue.Settings, now time.Time) (*countervalue.State, error)
}

// Service drives the engine. Passes never overlap: the loop is the only
// writer, and each pass swaps in a whole new snapshot under the lock.
type Service struct {
	engine *countervalue.Engine
	repo   StateRepository
	pairs  []countervalue.TrackingPair

	interval time.Duration
	notify   chan struct{}

	mu    sync.RWMutex
	state *countervalue.State
}

// New creates a tracker for the given pairs. Call Start to load the
// persisted state before running the loop.
func New(engine *countervalue.Engine, repo StateRepository, pairs []countervalue.TrackingPair, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Service{
		engine:   engine,
		repo:     repo,
		pairs:    pairs,
		interval: interval,
		notify:   make(chan struct{}, 1),
		state:    countervalue.NewState(),
	}
}

// Start loads the persisted snapshot. A missing or empty store yields
// an empty state.
func (s *Service) Start(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	st, err := s.repo.Load(ctx, s.engine.Settings(), s.engine.Now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	slog.Info("countervalues: state loaded", "pairs", len(st.Data))
	return nil
}

// SyncNow wakes the loop for an immediate pass. Non-blocking.
func (s *Service) SyncNow() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Run executes sync passes on the interval and on SyncNow wakes until
// ctx is cancelled. An initial pass runs immediately.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.notify:
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}
		s.sync(ctx)
	}
}

func (s *Service) sync(ctx context.Context) {
	next := s.engine.Sync(ctx, s.State(), s.pairs)

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, next); err != nil {
		slog.Error("countervalues: failed to persist state", "error", err)
	}
}

// State returns the current snapshot. Snapshots are immutable; callers
// may hold them across passes.
func (s *Service) State() *countervalue.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Pairs returns the resolved tracked pairs.
func (s *Service) Pairs() []countervalue.TrackingPair {
	return s.engine.Resolve(s.pairs)
}

// Engine exposes the underlying engine for lookups and conversions.
func (s *Service) Engine() *countervalue.Engine {
	return s.engine
}
