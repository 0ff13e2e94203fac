package sim

import (
	"context"

	"github.com/san-kum/cartpend/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// RunnerFactory builds the runner for ensemble member i. Each member must
// get its own Model.
type RunnerFactory func(i int) (*Runner, error)

// Ensemble runs independent runners in parallel, one goroutine per member.
type Ensemble struct {
	factory RunnerFactory
	numRuns int
}

func NewEnsemble(factory RunnerFactory, numRuns int) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns}
}

// Run returns results in member order. The first error cancels the
// remaining members.
func (e *Ensemble) Run(ctx context.Context, steps int) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		i := i // per-iteration copy (go 1.22 loopvar semantics)
		g.Go(func() error {
			r, err := e.factory(i)
			if err != nil {
				return err
			}
			res, err := r.Run(ctx, steps)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
