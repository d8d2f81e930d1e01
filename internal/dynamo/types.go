package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs is the infinity norm.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// AddScaled returns s + k*other as a new vector.
func (s State) AddScaled(k float64, other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + k*other[i]
	}
	return result
}

type Control []float64

func (c Control) Clone() Control {
	if c == nil {
		return nil
	}
	out := make(Control, len(c))
	copy(out, c)
	return out
}

// Perturb marks a single derivative evaluation. It is never stored.
type Perturb int8

const (
	// PerturbNone evaluates at the given time.
	PerturbNone Perturb = iota
	// PerturbPrev evaluates an infinitesimal instant before the given time.
	PerturbPrev
	// PerturbNext evaluates an infinitesimal instant after the given time.
	PerturbNext
)

func (p Perturb) String() string {
	switch p {
	case PerturbNone:
		return "none"
	case PerturbPrev:
		return "prev"
	case PerturbNext:
		return "next"
	default:
		return "invalid"
	}
}

// Shift resolves t to the adjacent representable time on the marked side.
func (p Perturb) Shift(t float64) float64 {
	switch p {
	case PerturbPrev:
		return math.Nextafter(t, math.Inf(-1))
	case PerturbNext:
		return math.Nextafter(t, math.Inf(1))
	default:
		return t
	}
}

// Func is the derivative call convention for systems without control input.
type Func func(t float64, y State, p Perturb) (State, error)

// ControlFunc is the derivative call convention for systems driven by u.
type ControlFunc func(t float64, y State, u Control, p Perturb) (State, error)

// System is a model evaluated without control input.
type System interface {
	Derive(t float64, y State, p Perturb) (State, error)
	StateDim() int
}

// ControlledSystem is a model whose derivative takes a control vector.
type ControlledSystem interface {
	Derive(t float64, y State, u Control, p Perturb) (State, error)
	StateDim() int
	ControlDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

// FinalObserver is implemented by metrics that also need the state at the
// end of the grid, which no step starts from.
type FinalObserver interface {
	ObserveFinal(x State, t float64)
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
