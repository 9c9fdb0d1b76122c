package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FetchAll runs every fn concurrently and waits for all of them.
//
// The first failure cancels the context handed to the others and is the error returned.
func FetchAll(ctx context.Context, fns ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

// Into adapts a catalog call returning (any, error) for [FetchAll], storing the result in dst.
func Into(dst *any, call func(ctx context.Context) (any, error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		v, err := call(ctx)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
}
