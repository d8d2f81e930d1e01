package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/fixedgrid/internal/config"
	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/sim"
)

// RunEnsemble integrates every initial state in inits under cfg. Each
// trajectory gets its own model, controller and metrics.
func RunEnsemble(ctx context.Context, reg *Registry, cfg *config.Config, inits []dynamo.State, workers int, opts ...sim.Option) ([]*sim.Result, error) {
	proto, err := New(reg, cfg, opts...)
	if err != nil {
		return nil, err
	}
	for i, x0 := range inits {
		if len(x0) != proto.model.StateDim() {
			return nil, fmt.Errorf("initial state %d has %d components, want %d: %w", i, len(x0), proto.model.StateDim(), dynamo.ErrDimensionMismatch)
		}
	}

	sims := make(chan *sim.Simulator, len(inits))
	for range inits {
		e, err := New(reg, cfg, opts...)
		if err != nil {
			return nil, err
		}
		sims <- e.simulator
	}
	build := func() *sim.Simulator { return <-sims }
	ens := sim.NewEnsemble(build, workers)

	switch m := proto.model.(type) {
	case dynamo.ControlledSystem:
		return ens.RunControlled(ctx, m.Derive, inits, proto.simCfg)
	case dynamo.System:
		return ens.Run(ctx, m.Derive, inits, proto.simCfg)
	}
	return nil, dynamo.ErrMissingDerivative
}
