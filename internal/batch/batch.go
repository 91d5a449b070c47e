// Package batch runs a list of jobs with bounded concurrency while
// preserving the correspondence between inputs and results.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of one job. Exactly one of Value and Err is
// meaningful.
type Result[T any] struct {
	Value T
	Err   error
}

// Run executes fn for every item, at most limit at a time. results[i]
// corresponds to items[i]. A failing item never aborts its siblings;
// its error is captured in its own slot.
func Run[I, O any](ctx context.Context, limit int, items []I, fn func(context.Context, I) (O, error)) []Result[O] {
	if limit <= 0 {
		limit = 1
	}

	results := make([]Result[O], len(items))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			v, err := fn(ctx, item)
			results[i] = Result[O]{Value: v, Err: err}
			return nil
		})
	}
	// Workers always return nil; Wait only synchronizes.
	_ = g.Wait()

	return results
}
