package batch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestRun_PreservesOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	results := Run(context.Background(), 8, items, func(_ context.Context, n int) (string, error) {
		return strconv.Itoa(n * 2), nil
	})

	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("item %d: unexpected error %v", i, r.Err)
		}
		if want := strconv.Itoa(i * 2); r.Value != want {
			t.Errorf("item %d: got %q, want %q", i, r.Value, want)
		}
	}
}

func TestRun_FailuresAreIsolated(t *testing.T) {
	errOdd := errors.New("odd item")
	results := Run(context.Background(), 4, []int{0, 1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, fmt.Errorf("item %d: %w", n, errOdd)
		}
		return n, nil
	})

	for i, r := range results {
		if i%2 == 1 {
			if !errors.Is(r.Err, errOdd) {
				t.Errorf("item %d: got err %v, want %v", i, r.Err, errOdd)
			}
			continue
		}
		if r.Err != nil || r.Value != i {
			t.Errorf("item %d: got (%d, %v), want (%d, nil)", i, r.Value, r.Err, i)
		}
	}
}

func TestRun_RespectsLimit(t *testing.T) {
	var (
		mu     sync.Mutex
		active int
		peak   int
	)

	results := Run(context.Background(), 3, make([]struct{}, 20), func(_ context.Context, _ struct{}) (struct{}, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return struct{}{}, nil
	})

	if len(results) != 20 {
		t.Fatalf("got %d results, want 20", len(results))
	}
	if peak > 3 {
		t.Errorf("peak concurrency %d exceeds limit 3", peak)
	}
}

func TestRun_ZeroLimitStillRuns(t *testing.T) {
	results := Run(context.Background(), 0, []int{1, 2}, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if len(results) != 2 || results[0].Value != 1 || results[1].Value != 2 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestRun_Empty(t *testing.T) {
	results := Run(context.Background(), 4, nil, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
}
