package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/integrators"
	"github.com/san-kum/fixedgrid/internal/telemetry"
)

type Result struct {
	Times       []float64
	States      []dynamo.State
	GridTimes   []float64
	Controls    []dynamo.Control
	Metrics     map[string]float64
	StepsTaken  int
	Evaluations int
}

// Final returns the state at the last output time.
func (r *Result) Final() dynamo.State {
	if r == nil || len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Simulator walks a fixed time grid, calling the stepper once per interval.
// It owns y and t for the duration of a run. Not safe for concurrent runs;
// use Ensemble for many trajectories.
type Simulator struct {
	stepper    *integrators.Stepper
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	recorder   *telemetry.Recorder
	logger     *slog.Logger
}

type Option func(*Simulator)

// WithController sets the source of u. It is sampled once per grid step at
// the step's start time and state.
func WithController(c dynamo.Controller) Option {
	return func(s *Simulator) { s.controller = c }
}

func WithMetric(m dynamo.Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, m) }
}

func WithObserver(o dynamo.Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

func WithRecorder(r *telemetry.Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func New(stepper *integrators.Stepper, opts ...Option) *Simulator {
	s := &Simulator{
		stepper:   stepper,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) Stepper() *integrators.Stepper { return s.stepper }

// trajectory is one of the two call conventions bound for a whole run.
type trajectory interface {
	control(x dynamo.State, t float64) dynamo.Control
	step(t0, dt, t1 float64, y0 dynamo.State, u dynamo.Control) (integrators.Increment, error)
	slope(t float64, y dynamo.State, u dynamo.Control, p dynamo.Perturb) (dynamo.State, error)
}

type plainTrajectory struct {
	st *integrators.Stepper
	f  dynamo.Func
}

func (p plainTrajectory) control(dynamo.State, float64) dynamo.Control { return nil }

func (p plainTrajectory) step(t0, dt, t1 float64, y0 dynamo.State, _ dynamo.Control) (integrators.Increment, error) {
	return p.st.Step(p.f, t0, dt, t1, y0)
}

func (p plainTrajectory) slope(t float64, y dynamo.State, _ dynamo.Control, pt dynamo.Perturb) (dynamo.State, error) {
	return p.f(t, y, pt)
}

type controlledTrajectory struct {
	st   *integrators.Stepper
	f    dynamo.ControlFunc
	ctrl dynamo.Controller
}

func (c controlledTrajectory) control(x dynamo.State, t float64) dynamo.Control {
	return c.ctrl.Compute(x, t)
}

func (c controlledTrajectory) step(t0, dt, t1 float64, y0 dynamo.State, u dynamo.Control) (integrators.Increment, error) {
	return c.st.StepControl(c.f, t0, dt, t1, y0, u)
}

func (c controlledTrajectory) slope(t float64, y dynamo.State, u dynamo.Control, pt dynamo.Perturb) (dynamo.State, error) {
	return c.f(t, y, u, pt)
}

// Run integrates a system without control input.
func (s *Simulator) Run(ctx context.Context, f dynamo.Func, y0 dynamo.State, cfg Config) (*Result, error) {
	if f == nil {
		return nil, dynamo.ErrMissingDerivative
	}
	if s.controller != nil {
		return nil, dynamo.ErrUnexpectedControl
	}
	f = s.recorder.WrapFunc(s.stepper.Scheme().String(), f)
	return s.run(ctx, plainTrajectory{st: s.stepper, f: f}, y0, cfg)
}

// RunControlled integrates a system driven by the configured controller.
func (s *Simulator) RunControlled(ctx context.Context, f dynamo.ControlFunc, y0 dynamo.State, cfg Config) (*Result, error) {
	if f == nil {
		return nil, dynamo.ErrMissingDerivative
	}
	if s.controller == nil {
		return nil, dynamo.ErrMissingControl
	}
	f = s.recorder.WrapControlFunc(s.stepper.Scheme().String(), f)
	return s.run(ctx, controlledTrajectory{st: s.stepper, f: f, ctrl: s.controller}, y0, cfg)
}

func (s *Simulator) run(ctx context.Context, tr trajectory, y0 dynamo.State, cfg Config) (*Result, error) {
	grid, err := cfg.Grid()
	if err != nil {
		return nil, err
	}
	scheme := s.stepper.Scheme()
	steps := len(grid) - 1

	result := &Result{
		Times:     make([]float64, 0, len(cfg.Times)),
		States:    make([]dynamo.State, 0, len(cfg.Times)),
		GridTimes: grid,
		Controls:  make([]dynamo.Control, 0, steps),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Debug("fixed-grid run started",
		"scheme", scheme.String(),
		"perturb", s.stepper.Perturb(),
		"steps", steps,
		"outputs", len(cfg.Times),
		"interpolation", cfg.Interpolation.String())

	x := y0.Clone()
	result.Times = append(result.Times, cfg.Times[0])
	result.States = append(result.States, x.Clone())
	j := 1

	endTag := dynamo.PerturbNone
	if s.stepper.Perturb() {
		endTag = dynamo.PerturbPrev
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t0, t1 := grid[i], grid[i+1]
		dt := t1 - t0

		u := tr.control(x, t0)

		for _, m := range s.metrics {
			m.Observe(x, u, t0)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t0)
		}

		start := time.Now()
		inc, err := tr.step(t0, dt, t1, x, u)
		s.recorder.ObserveStep(scheme.String(), time.Since(start), err)
		if err != nil {
			return nil, s.fail(i, t0, err)
		}
		result.Evaluations += scheme.Evaluations()

		x1 := x.Add(inc.Dy)
		if cfg.ValidateState && !x1.IsValid() {
			return nil, s.fail(i, t0, dynamo.ErrInvalidState)
		}

		var f1 dynamo.State
		if cfg.Interpolation == Cubic && j < len(cfg.Times) && cfg.Times[j] <= t1 {
			f1, err = tr.slope(t1, x1, u, endTag)
			if err != nil {
				return nil, s.fail(i, t1, err)
			}
			if len(f1) != len(x1) {
				return nil, s.fail(i, t1, fmt.Errorf("interpolation slope: %w", dynamo.ErrDimensionMismatch))
			}
			result.Evaluations++
		}

		for j < len(cfg.Times) && cfg.Times[j] <= t1 {
			var y dynamo.State
			if f1 != nil {
				y = cubicHermite(t0, t1, x, inc.F0, x1, f1, cfg.Times[j])
			} else {
				y = linearInterp(t0, t1, x, x1, cfg.Times[j])
			}
			result.Times = append(result.Times, cfg.Times[j])
			result.States = append(result.States, y)
			j++
		}

		x = x1
		result.StepsTaken++
		result.Controls = append(result.Controls, u.Clone())
	}

	for _, m := range s.metrics {
		if fo, ok := m.(dynamo.FinalObserver); ok {
			fo.ObserveFinal(x, grid[steps])
		}
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("fixed-grid run finished",
		"scheme", scheme.String(),
		"steps", result.StepsTaken,
		"evaluations", result.Evaluations)

	return result, nil
}

func (s *Simulator) fail(step int, t float64, err error) error {
	scheme := s.stepper.Scheme().String()
	s.logger.Warn("fixed-grid step failed", "step", step, "t", t, "scheme", scheme, "err", err)
	return &dynamo.StepError{Step: step, Time: t, Scheme: scheme, Wrapped: err}
}
