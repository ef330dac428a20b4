package wikiindex

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Task pool defaults.
const (
	DefaultWorkers     = 40
	DefaultMaxAttempts = 100
)

// A TaskPool runs batches of independent jobs on a fixed number of
// goroutines, retrying each failed job straight away up to a limit.
//
// A failing job never stops the batch and sibling jobs are never
// canceled.  Results are expected to be written by index.
type TaskPool struct {
	workers     int
	maxAttempts int
	log         zerolog.Logger
}

// NewTaskPool gets a TaskPool.  Non-positive arguments take the
// defaults.
func NewTaskPool(workers, maxAttempts int) *TaskPool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &TaskPool{workers: workers, maxAttempts: maxAttempts, log: Logger()}
}

// WithLogger returns a copy of the pool logging to l.
func (tp *TaskPool) WithLogger(l zerolog.Logger) *TaskPool {
	rv := *tp
	rv.log = l
	return &rv
}

// Workers is the number of concurrent jobs.
func (tp *TaskPool) Workers() int { return tp.workers }

// MaxAttempts is the number of tries a job gets.
func (tp *TaskPool) MaxAttempts() int { return tp.maxAttempts }

// Run calls job for every i in [0, n) and blocks until they are all
// done.  It returns, in order, the indexes abandoned after
// MaxAttempts failures.
//
// A job returning an error wrapped by backoff.Permanent is abandoned
// without further attempts, as is every remaining job once ctx is
// done.
func (tp *TaskPool) Run(ctx context.Context, n int, job func(ctx context.Context, i int) error) []int {
	failed := make([]bool, n)
	p := pool.New().WithMaxGoroutines(tp.workers)
	for i := 0; i < n; i++ {
		p.Go(func() {
			b := backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(tp.maxAttempts-1))
			err := backoff.Retry(func() error {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return job(ctx, i)
			}, b)
			if err != nil {
				tp.log.Warn().Err(err).Int("job", i).Msg("Abandoned job")
				failed[i] = true
			}
		})
	}
	p.Wait()

	var rv []int
	for i, f := range failed {
		if f {
			rv = append(rv, i)
		}
	}
	return rv
}

// Gather runs fetch for every i in [0, n) on the pool and collects the
// results by index.  Abandoned slots hold the zero value and are
// listed in the second return.
func Gather[T any](ctx context.Context, tp *TaskPool, n int,
	fetch func(ctx context.Context, i int) (T, error)) ([]T, []int) {

	rv := make([]T, n)
	abandoned := tp.Run(ctx, n, func(ctx context.Context, i int) error {
		v, err := fetch(ctx, i)
		if err != nil {
			return err
		}
		rv[i] = v
		return nil
	})
	return rv, abandoned
}
