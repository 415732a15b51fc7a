// Package batch runs per-file work for adapters, in file order or on a
// bounded pool of workers.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/progress"
)

// Func processes one file and returns the file that replaces it
type Func func(ctx context.Context, f domain.File) (domain.File, error)

// Options configures a batch
type Options struct {
	// Action labels the batch in progress updates
	Action string

	// Workers > 1 processes files concurrently. Results keep input order.
	Workers int

	Reporter progress.Reporter
}

// Map calls fn for every file and returns the results in input order.
// The first error stops the batch: sequential batches return at once,
// parallel batches cancel the context passed to the remaining calls and
// return the first error once running calls finish.
func Map(ctx context.Context, files []domain.File, opts Options, fn Func) ([]domain.File, error) {
	reporter := progress.OrNull(opts.Reporter)
	reporter.SetTotal(opts.Action, len(files))

	one := func(ctx context.Context, f domain.File) (domain.File, error) {
		reporter.Start(f.Path())
		out, err := fn(ctx, f)
		if err != nil {
			reporter.Error(f.Path(), err)
			return domain.File{}, err
		}
		reporter.Complete(f.Path())
		return out, nil
	}

	out := make([]domain.File, len(files))

	if opts.Workers <= 1 || len(files) < 2 {
		for i, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			next, err := one(ctx, f)
			if err != nil {
				return nil, err
			}
			out[i] = next
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			next, err := one(gctx, f)
			if err != nil {
				return err
			}
			out[i] = next
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
