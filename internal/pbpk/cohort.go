package pbpk

import (
	"context"
	"fmt"

	"github.com/san-kum/pbpksim/internal/subject"
	"golang.org/x/sync/errgroup"
)

// Factory builds a fresh, independent model instance.
type Factory func() (Model, error)

// RunCohort simulates every subject on its own model instance, at most
// limit at a time (limit <= 0 means unbounded). Results keep the order
// of subjects. The first failure cancels the remaining runs.
func RunCohort(ctx context.Context, factory Factory, subjects []subject.Descriptor, time, dt float64, limit int) ([]*Trajectory, error) {
	if err := ValidateHorizon(time, dt); err != nil {
		return nil, err
	}
	results := make([]*Trajectory, len(subjects))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range subjects {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := factory()
			if err != nil {
				return fmt.Errorf("subject %d: %w", i, err)
			}
			tr, err := SimulateWithSubject(m, s, time, dt)
			if err != nil {
				return fmt.Errorf("subject %d: %w", i, err)
			}
			results[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
