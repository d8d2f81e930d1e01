package integrators

import (
	"fmt"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// Increment is the result of one step: y1 = y0 + Dy. F0 is the derivative
// at the step's start, handed back so callers can reuse it.
type Increment struct {
	Dy dynamo.State
	F0 dynamo.State
}

// evaluator hides which of the two derivative call conventions is in use,
// so each scheme is written once.
type evaluator interface {
	eval(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error)
}

type plainCall struct {
	f dynamo.Func
}

func (c plainCall) eval(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
	return c.f(t, y, p)
}

// controlCall holds u at its start-of-step value for every stage.
type controlCall struct {
	f dynamo.ControlFunc
	u dynamo.Control
}

func (c controlCall) eval(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
	return c.f(t, y, c.u, p)
}

// derive runs one stage. Errors from the derivative are returned as is.
func derive(e evaluator, stage string, t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
	dy, err := e.eval(t, y, p)
	if err != nil {
		return nil, err
	}
	if len(dy) != len(y) {
		return nil, fmt.Errorf("%s: derivative has %d components, state has %d: %w",
			stage, len(dy), len(y), dynamo.ErrDimensionMismatch)
	}
	return dy, nil
}

// tags carries the perturbation markers for evaluations sitting exactly on
// the step's boundaries. Interior stages always use PerturbNone.
type tags struct {
	start dynamo.Perturb
	end   dynamo.Perturb
}

type stepFunc func(e evaluator, t0, dt, t1 float64, y0 dynamo.State, tg tags) (Increment, error)

// Stepper advances a state by one fixed step with the configured scheme.
// It holds no per-step state and may be shared between goroutines.
type Stepper struct {
	scheme  Scheme
	perturb bool
	step    stepFunc
}

type Option func(*Stepper)

// WithPerturb enables directional tagging of boundary evaluations.
func WithPerturb(enabled bool) Option {
	return func(s *Stepper) {
		s.perturb = enabled
	}
}

func New(scheme Scheme, opts ...Option) (*Stepper, error) {
	s := &Stepper{scheme: scheme}
	switch scheme {
	case Euler:
		s.step = eulerStep
	case Midpoint:
		s.step = midpointStep
	case RK4:
		s.step = rk4Step
	default:
		return nil, fmt.Errorf("%v: %w", scheme, dynamo.ErrUnknownScheme)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewByName is New for a scheme given by its configuration name.
func NewByName(name string, perturb bool) (*Stepper, error) {
	scheme, err := ParseScheme(name)
	if err != nil {
		return nil, err
	}
	return New(scheme, WithPerturb(perturb))
}

func (s *Stepper) Scheme() Scheme { return s.scheme }
func (s *Stepper) Perturb() bool  { return s.perturb }
func (s *Stepper) Order() int     { return s.scheme.Order() }

func (s *Stepper) tags() tags {
	if !s.perturb {
		return tags{start: dynamo.PerturbNone, end: dynamo.PerturbNone}
	}
	return tags{start: dynamo.PerturbNext, end: dynamo.PerturbPrev}
}

// Step computes the increment for a system without control input.
func (s *Stepper) Step(f dynamo.Func, t0, dt, t1 float64, y0 dynamo.State) (Increment, error) {
	if f == nil {
		return Increment{}, dynamo.ErrMissingDerivative
	}
	return s.step(plainCall{f: f}, t0, dt, t1, y0, s.tags())
}

// StepControl computes the increment for a system driven by u, the control
// value at t0. Every derivative call in the step receives u.
func (s *Stepper) StepControl(f dynamo.ControlFunc, t0, dt, t1 float64, y0 dynamo.State, u dynamo.Control) (Increment, error) {
	if f == nil {
		return Increment{}, dynamo.ErrMissingDerivative
	}
	if u == nil {
		return Increment{}, dynamo.ErrMissingControl
	}
	return s.step(controlCall{f: f, u: u}, t0, dt, t1, y0, s.tags())
}
