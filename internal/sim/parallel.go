package sim

import (
	"context"
	"runtime"

	"github.com/san-kum/fixedgrid/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Ensemble integrates independent initial conditions concurrently. Each
// trajectory gets its own Simulator from build, so stateful controllers and
// metrics are never shared.
type Ensemble struct {
	build   func() *Simulator
	workers int
}

func NewEnsemble(build func() *Simulator, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{build: build, workers: workers}
}

func (e *Ensemble) Run(ctx context.Context, f dynamo.Func, inits []dynamo.State, cfg Config) ([]*Result, error) {
	return e.each(ctx, inits, func(ctx context.Context, s *Simulator, x0 dynamo.State) (*Result, error) {
		return s.Run(ctx, f, x0, cfg)
	})
}

func (e *Ensemble) RunControlled(ctx context.Context, f dynamo.ControlFunc, inits []dynamo.State, cfg Config) ([]*Result, error) {
	return e.each(ctx, inits, func(ctx context.Context, s *Simulator, x0 dynamo.State) (*Result, error) {
		return s.RunControlled(ctx, f, x0, cfg)
	})
}

func (e *Ensemble) each(ctx context.Context, inits []dynamo.State, run func(context.Context, *Simulator, dynamo.State) (*Result, error)) ([]*Result, error) {
	results := make([]*Result, len(inits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, x0 := range inits {
		i, x0 := i, x0
		g.Go(func() error {
			res, err := run(gctx, e.build(), x0)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
