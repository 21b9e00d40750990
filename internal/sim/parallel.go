package sim

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/landau/internal/dynamo"
)

// Ensemble runs independent simulators over consecutive seeds. Each member
// owns its lattice and random stream, so members run concurrently.
type Ensemble struct {
	params    dynamo.Params
	numRuns   int
	seedStart int64
	metrics   func() []dynamo.Metric
	opts      []Option
}

func NewEnsemble(p dynamo.Params, numRuns int, seedStart int64, metrics func() []dynamo.Metric, opts ...Option) *Ensemble {
	return &Ensemble{params: p, numRuns: numRuns, seedStart: seedStart, metrics: metrics, opts: opts}
}

func (e *Ensemble) Run(ctx context.Context, steps int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(e.seedStart + int64(idx)))
			s, err := New(e.params, rng, e.opts...)
			if err != nil {
				return err
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}
			if err := s.Run(ctx, steps, nil); err != nil {
				return err
			}
			results[idx] = s.Result()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
