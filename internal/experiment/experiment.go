package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/fixedgrid/internal/config"
	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/integrators"
	"github.com/san-kum/fixedgrid/internal/models"
	"github.com/san-kum/fixedgrid/internal/sim"
)

// Experiment is one configured run: a model, a stepper and, for controlled
// models, a control source.
type Experiment struct {
	cfg        *config.Config
	model      Model
	controller dynamo.Controller
	simulator  *sim.Simulator
	simCfg     sim.Config
}

// New resolves cfg against the registry. Extra options are passed to the
// simulator after the registry's own.
func New(reg *Registry, cfg *config.Config, opts ...sim.Option) (*Experiment, error) {
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return nil, err
	}

	model, err := reg.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	if c, ok := model.(dynamo.Configurable); ok {
		for name, value := range cfg.Params {
			if err := c.SetParam(name, value); err != nil {
				return nil, err
			}
		}
	} else if len(cfg.Params) > 0 {
		return nil, fmt.Errorf("model %q takes no parameters: %w", cfg.Model, dynamo.ErrParameterBounds)
	}

	if n := len(cfg.GetInitState()); n != model.StateDim() {
		return nil, fmt.Errorf("init_state has %d components, %s takes %d: %w", n, cfg.Model, model.StateDim(), dynamo.ErrDimensionMismatch)
	}

	scheme, err := integrators.ParseScheme(cfg.Scheme)
	if err != nil {
		return nil, err
	}
	stepper, err := integrators.New(scheme, integrators.WithPerturb(cfg.Perturb))
	if err != nil {
		return nil, err
	}

	e := &Experiment{cfg: cfg, model: model, simCfg: simCfg}

	simOpts := make([]sim.Option, 0, len(opts)+4)
	switch m := model.(type) {
	case dynamo.ControlledSystem:
		name := cfg.Controller
		if name == "" {
			name = "none"
		}
		e.controller, err = reg.GetController(name, cfg, m.ControlDim())
		if err != nil {
			return nil, err
		}
		simOpts = append(simOpts, sim.WithController(e.controller))
	case dynamo.System:
		if cfg.Controller != "" && cfg.Controller != "none" {
			return nil, fmt.Errorf("controller %q on model %q: %w", cfg.Controller, cfg.Model, dynamo.ErrUnexpectedControl)
		}
	default:
		return nil, fmt.Errorf("model %q has no derivative: %w", cfg.Model, dynamo.ErrMissingDerivative)
	}

	for _, metric := range reg.DefaultMetrics(model) {
		simOpts = append(simOpts, sim.WithMetric(metric))
	}
	e.simulator = sim.New(stepper, append(simOpts, opts...)...)
	return e, nil
}

// Run integrates over the configured grid.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	x0 := dynamo.State(e.cfg.GetInitState())

	switch m := e.model.(type) {
	case dynamo.ControlledSystem:
		return e.simulator.RunControlled(ctx, m.Derive, x0, e.simCfg)
	case dynamo.System:
		return e.simulator.Run(ctx, m.Derive, x0, e.simCfg)
	}
	return nil, dynamo.ErrMissingDerivative
}

func (e *Experiment) Config() *config.Config        { return e.cfg }
func (e *Experiment) Model() Model                  { return e.model }
func (e *Experiment) Controller() dynamo.Controller { return e.controller }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Exact returns the closed-form solution through the initial state, if the
// model has one.
func (e *Experiment) Exact() (func(t float64) dynamo.State, bool) {
	s, ok := e.model.(models.Solvable)
	if !ok {
		return nil, false
	}
	t0 := e.cfg.T0
	y0 := dynamo.State(e.cfg.GetInitState())
	return func(t float64) dynamo.State { return s.Exact(t0, y0, t) }, true
}
