package parallel

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

// Workers normalizes a requested worker count: values below 1 mean one
// worker per CPU, and there is never more than one worker per item.
func Workers(requested, items int) int {
	n := requested
	if n < 1 {
		n = runtime.NumCPU()
	}
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ForEach runs fn(ctx, i) for every i in [0, n) with at most limit goroutines.
//
// The first error cancels the derived context, stops launching new items and
// is returned. Panics inside fn are recovered into errors.PanicError. When the
// parent context is done before all items started, the context error is
// returned. Callers write results into index i of a pre-sized slice so the
// merge order never depends on completion order.
func ForEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(limit, n))

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return errors.SafeExecute(fmt.Sprintf("parallel item %d", i), func() error {
				return fn(gctx, i)
			})
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Parallelize divides items into contiguous ranges, one per CPU, and runs fn
// on each range concurrently. It is used for row-wise matrix work that cannot
// fail.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	numWorkers := Workers(0, items)
	chunkSize := (items + numWorkers - 1) / numWorkers

	g := new(errgroup.Group)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items <= threshold and
// falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
