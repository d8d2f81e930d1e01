package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/fixedgrid/internal/config"
	"github.com/san-kum/fixedgrid/internal/control"
	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/metrics"
	"github.com/san-kum/fixedgrid/internal/models"
)

// Model is either a dynamo.System or a dynamo.ControlledSystem.
type Model interface {
	StateDim() int
}

// ControllerFactory builds a controller for a model with controlDim inputs.
type ControllerFactory func(cfg *config.Config, controlDim int) (dynamo.Controller, error)

type Registry struct {
	models      map[string]func() Model
	controllers map[string]ControllerFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() Model),
		controllers: make(map[string]ControllerFactory),
	}

	r.models["decay"] = func() Model { return models.NewDecay(1) }
	r.models["growth"] = func() Model { return models.NewGrowth() }
	r.models["pendulum"] = func() Model { return models.NewPendulum() }
	r.models["spring_mass"] = func() Model { return models.NewSpringMass() }
	r.models["spring_chain"] = func() Model { return models.NewSpringMassChain(3) }
	r.models["double_integrator"] = func() Model { return models.NewDoubleIntegrator() }
	r.models["square_wave"] = func() Model { return models.NewSquareWave(1, 1) }

	r.controllers["none"] = func(cfg *config.Config, dim int) (dynamo.Controller, error) {
		return control.NewNone(dim), nil
	}
	r.controllers["pid"] = func(cfg *config.Config, dim int) (dynamo.Controller, error) {
		p := cfg.ControllerParams
		pid := control.NewPID(p.Kp, p.Ki, p.Kd, p.Target)
		pid.Limit = p.Limit
		return pid, nil
	}
	r.controllers["lqr"] = func(cfg *config.Config, dim int) (dynamo.Controller, error) {
		switch cfg.Model {
		case "pendulum":
			return control.NewPendulumLQR(), nil
		case "spring_mass":
			return control.NewSpringMassLQR(), nil
		}
		return nil, fmt.Errorf("no LQR gains for model %q: %w", cfg.Model, dynamo.ErrUnknownController)
	}
	r.controllers["constant"] = func(cfg *config.Config, dim int) (dynamo.Controller, error) {
		u := dynamo.Control(cfg.ControllerParams.Value)
		if len(u) == 0 {
			u = make(dynamo.Control, dim)
		}
		if len(u) != dim {
			return nil, fmt.Errorf("constant input has %d components, model takes %d: %w", len(u), dim, dynamo.ErrDimensionMismatch)
		}
		return control.NewConstant(u), nil
	}
	r.controllers["schedule"] = func(cfg *config.Config, dim int) (dynamo.Controller, error) {
		values := make([]dynamo.Control, len(cfg.Schedule.Values))
		for i, v := range cfg.Schedule.Values {
			values[i] = dynamo.Control(v)
		}
		s, err := control.NewSchedule(cfg.Schedule.Times, values)
		if err != nil {
			return nil, err
		}
		if s.Dim() != dim {
			return nil, fmt.Errorf("schedule has %d components, model takes %d: %w", s.Dim(), dim, dynamo.ErrDimensionMismatch)
		}
		return s, nil
	}

	return r
}

// RegisterModel adds or replaces a model factory.
func (r *Registry) RegisterModel(name string, fn func() Model) {
	r.models[name] = fn
}

// RegisterController adds or replaces a controller factory.
func (r *Registry) RegisterController(name string, fn ControllerFactory) {
	r.controllers[name] = fn
}

func (r *Registry) GetModel(name string) (Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, dynamo.ErrUnknownModel)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, cfg *config.Config, controlDim int) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, dynamo.ErrUnknownController)
	}
	return fn(cfg, controlDim)
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListControllers() []string {
	return sortedKeys(r.controllers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the metrics that apply to m.
func (r *Registry) DefaultMetrics(m Model) []dynamo.Metric {
	out := []dynamo.Metric{metrics.NewStability(10.0)}
	if _, ok := m.(dynamo.ControlledSystem); ok {
		out = append(out, metrics.NewControlEffort())
	}
	if h, ok := m.(dynamo.Hamiltonian); ok {
		out = append(out, metrics.NewEnergyDrift(h))
	}
	return out
}
