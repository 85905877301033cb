// Package parallel provides order-preserving bounded parallel map
// and batching helpers for work over independent items.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every item with at most workers goroutines and
// returns the results in input order. workers <= 0 uses one worker
// per CPU; with one worker or at most one item it runs sequentially.
// A failing item leaves its zero value in place; the first error is
// returned after all items finish and cancels no siblings (items are
// independent).
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers == 1 || len(items) == 1 {
		var firstErr error
		for i, item := range items {
			r, err := fn(ctx, item)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			results[i] = r
		}
		return results, firstErr
	}

	g := errgroup.Group{}
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			r, err := fn(ctx, items[i])
			results[i] = r
			return err
		})
	}
	return results, g.Wait()
}

// Batch splits items into contiguous batches of at most size items.
// The final batch may be short. size <= 0 yields a single batch.
func Batch[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{items}
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
