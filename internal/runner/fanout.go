package runner

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// DefaultFanOutLimit bounds concurrent sub-fetches when no limit is given.
const DefaultFanOutLimit = 8

// FanOut runs fn for every item with at most limit calls in flight.
//
// Failed calls are dropped. Results of successful calls are returned in input
// order, and the failures are joined into the returned error. A failure never
// cancels the remaining calls.
func FanOut[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	if limit <= 0 {
		limit = DefaultFanOutLimit
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			results[i], errs[i] = fn(ctx, item)
			return nil
		})
	}
	g.Wait()

	out := make([]R, 0, len(items))
	for i := range items {
		if errs[i] == nil {
			out = append(out, results[i])
		}
	}
	return out, errors.Join(errs...)
}
