// Package state persists the countervalues truth (rate buckets and
// fetch status) in sqlite. The derived cache is never stored; loading
// rebuilds it.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BenAffleck/ledger-live-common/internal/countervalue"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save replaces the stored document with the given snapshot's data and
// status, atomically.
func (r *Repository) Save(ctx context.Context, s *countervalue.State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save state: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM rate_buckets"); err != nil {
		return fmt.Errorf("clear rate buckets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM fetch_status"); err != nil {
		return fmt.Errorf("clear fetch status: %w", err)
	}

	if err := r.insertBuckets(ctx, tx, s.Data); err != nil {
		return err
	}

	for pair, status := range s.Status {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO fetch_status (pair, attempted_at, failures, oldest_requested) VALUES (?, ?, ?, ?)",
			pair, formatTime(status.Timestamp), status.Failures, formatTime(status.OldestDateRequested),
		)
		if err != nil {
			return fmt.Errorf("save status for %s: %w", pair, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save state: %w", err)
	}
	return nil
}

func (r *Repository) insertBuckets(ctx context.Context, tx *sql.Tx, data map[string]countervalue.RateMap) error {
	type row struct {
		pair, bucket string
		rate         float64
	}
	var rows []row
	for pair, rates := range data {
		for bucket, rate := range rates {
			rows = append(rows, row{pair: pair, bucket: bucket, rate: rate})
		}
	}

	const batchSize = 500
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		batch := rows[i:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*3)
		for j, rw := range batch {
			placeholders[j] = "(?, ?, ?)"
			args = append(args, rw.pair, rw.bucket, rw.rate)
		}

		query := fmt.Sprintf( //nolint:gosec // placeholders are not user input
			"INSERT INTO rate_buckets (pair, bucket, rate) VALUES %s",
			strings.Join(placeholders, ", "),
		)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("save rate buckets: %w", err)
		}
	}
	return nil
}

// Load reconstructs the full in-memory snapshot, rebuilding the derived
// cache for every pair. An empty database yields an empty state.
func (r *Repository) Load(ctx context.Context, settings countervalue.Settings, now time.Time) (*countervalue.State, error) {
	s := countervalue.NewState()

	rows, err := r.db.QueryContext(ctx, "SELECT pair, bucket, rate FROM rate_buckets")
	if err != nil {
		return nil, fmt.Errorf("load rate buckets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var pair, bucket string
		var rate float64
		if err := rows.Scan(&pair, &bucket, &rate); err != nil {
			return nil, fmt.Errorf("scan rate bucket: %w", err)
		}
		m, ok := s.Data[pair]
		if !ok {
			m = make(countervalue.RateMap)
			s.Data[pair] = m
		}
		m[bucket] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load rate buckets: %w", err)
	}

	statusRows, err := r.db.QueryContext(ctx,
		"SELECT pair, attempted_at, failures, oldest_requested FROM fetch_status")
	if err != nil {
		return nil, fmt.Errorf("load fetch status: %w", err)
	}
	defer func() { _ = statusRows.Close() }()

	for statusRows.Next() {
		var pair, attemptedAt, oldestRequested string
		var failures int
		if err := statusRows.Scan(&pair, &attemptedAt, &failures, &oldestRequested); err != nil {
			return nil, fmt.Errorf("scan fetch status: %w", err)
		}
		s.Status[pair] = countervalue.FetchStatus{
			Timestamp:           parseTime(attemptedAt),
			Failures:            failures,
			OldestDateRequested: parseTime(oldestRequested),
		}
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("load fetch status: %w", err)
	}

	for pair, rates := range s.Data {
		s.Cache[pair] = countervalue.BuildCache(rates, settings, now)
	}
	return s, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, v)
	return t
}
