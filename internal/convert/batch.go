package convert

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrFailed reports that at least one batch job failed.
var ErrFailed = errors.New("convert: batch had failures")

// Batch runs independent jobs concurrently, at most Concurrency at a time,
// and returns their outcomes in job order. A failing job does not stop the
// others; Batch returns ErrFailed when any failed and the context error
// when ctx ends first.
func (s *Service) Batch(ctx context.Context, jobs []Job) ([]Outcome, error) {
	limit := s.Concurrency
	if limit <= 0 {
		limit = 4
	}
	outcomes := make([]Outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i] = Outcome{Job: job, Err: err}
				return err
			}
			outcomes[i] = s.Run(gctx, job)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return outcomes, fmt.Errorf("%w: %d of %d", ErrFailed, failed, len(jobs))
	}
	return outcomes, nil
}
