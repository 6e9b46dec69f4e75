// Package parallel runs independent propagation workloads with bounded
// concurrency. Each instance owns its store and engine, so workloads never
// share mutable state; the only coordination is the concurrency limit and
// error propagation.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn(ctx, i) for every i in [0, n) on at most limit
// goroutines. A limit below 1 means one goroutine per CPU. The first error
// cancels the group context and is returned after all started calls have
// finished; fn should watch ctx when a single call can run long.
func ForEach(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
