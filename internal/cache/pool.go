package cache

import (
	"context"

	"golang.org/x/sync/errgroup"

	"ecomap/internal/org"
)

// DefaultWorkers is the pool size when none is configured.
const DefaultWorkers = 6

// Pool runs a function over rows with a fixed number of workers fed from one
// producer. Cancelling ctx stops the producer; rows already taken finish.
type Pool struct {
	Workers int
}

// Run calls fn once per row. It returns ctx's error if the feed was cut short.
func (p Pool) Run(ctx context.Context, rows []org.Organization, fn func(context.Context, org.Organization)) error {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(rows) {
		workers = len(rows)
	}
	if workers == 0 {
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	jobs := make(chan org.Organization)

	g.Go(func() error {
		defer close(jobs)
		for _, o := range rows {
			select {
			case jobs <- o:
			case <-gCtx.Done():
				return gCtx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for o := range jobs {
				fn(gCtx, o)
			}
			return nil
		})
	}

	return g.Wait()
}
