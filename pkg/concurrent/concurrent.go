package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll calls fn for every item with at most limit calls in flight and
// returns the results in input order. The first error cancels the context
// passed to the remaining calls and is returned. A limit below one means no
// limit.
func RunAll[T any, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}
