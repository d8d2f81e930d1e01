package models

import (
	"math"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// Exponential is y' = Rate*y, applied to each component.
type Exponential struct {
	Rate float64
	Dim  int
}

// NewDecay returns y' = -k*y.
func NewDecay(k float64) *Exponential {
	return &Exponential{Rate: -k, Dim: 1}
}

// NewGrowth returns y' = y.
func NewGrowth() *Exponential {
	return &Exponential{Rate: 1, Dim: 1}
}

func (e *Exponential) StateDim() int { return e.Dim }

func (e *Exponential) Derive(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
	if err := checkDims(y, e.Dim); err != nil {
		return nil, err
	}
	return y.Scale(e.Rate), nil
}

func (e *Exponential) Exact(t0 float64, y0 dynamo.State, t float64) dynamo.State {
	return y0.Scale(math.Exp(e.Rate * (t - t0)))
}

func (e *Exponential) GetParams() map[string]float64 {
	return map[string]float64{"rate": e.Rate}
}

func (e *Exponential) SetParam(name string, value float64) error {
	if name != "rate" {
		return unknownParam("exponential", name)
	}
	e.Rate = value
	return nil
}
