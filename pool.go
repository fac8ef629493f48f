package hookwrap

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Fanout runs fn for each index in [0, n) on at most jobs workers and
// reduces the results: the highest code wins, and output is merged in
// index order, not completion order.
//
// Workers share nothing.  An error from one worker doesn't stop the
// others; all errors are returned, joined, after every worker finishes.
// A jobs value below one means one worker per CPU.
func Fanout(
	ctx context.Context, jobs, n int,
	fn func(ctx context.Context, i int) (*Outcome, error),
) (*Outcome, error) {
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}
	results := make([]*Outcome, n)
	tracker := &errorTracker{}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				tracker.log(err)
				return nil
			}
			o, err := fn(gCtx, i)
			if err != nil {
				tracker.log(fmt.Errorf("job %d; %w", i, err))
				return nil
			}
			results[i] = o
			return nil
		})
	}
	// Workers never return errors to the group; the tracker has them.
	_ = g.Wait()
	total := NewOutcome()
	for _, o := range results {
		total.Merge(o)
	}
	return total, tracker.err()
}
