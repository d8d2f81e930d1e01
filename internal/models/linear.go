package models

import (
	"fmt"

	"github.com/san-kum/fixedgrid/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Linear is the state-space model x' = A x + B u.
type Linear struct {
	A *mat.Dense
	B *mat.Dense
}

func NewLinear(a, b *mat.Dense) (*Linear, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("linear model needs both A and B")
	}
	ar, ac := a.Dims()
	br, _ := b.Dims()
	if ar != ac {
		return nil, fmt.Errorf("A is %dx%d, must be square: %w", ar, ac, dynamo.ErrDimensionMismatch)
	}
	if br != ar {
		return nil, fmt.Errorf("B has %d rows, A has %d: %w", br, ar, dynamo.ErrDimensionMismatch)
	}
	return &Linear{A: a, B: b}, nil
}

// NewDoubleIntegrator returns position/velocity driven by an acceleration input.
func NewDoubleIntegrator() *Linear {
	return &Linear{
		A: mat.NewDense(2, 2, []float64{0, 1, 0, 0}),
		B: mat.NewDense(2, 1, []float64{0, 1}),
	}
}

func (l *Linear) StateDim() int {
	r, _ := l.A.Dims()
	return r
}

func (l *Linear) ControlDim() int {
	_, c := l.B.Dims()
	return c
}

func (l *Linear) Derive(t float64, x dynamo.State, u dynamo.Control, p dynamo.Perturb) (dynamo.State, error) {
	n, m := l.StateDim(), l.ControlDim()
	if err := checkDims(x, n); err != nil {
		return nil, err
	}
	if len(u) != m {
		return nil, fmt.Errorf("control has %d components, want %d: %w", len(u), m, dynamo.ErrDimensionMismatch)
	}

	var ax, bu mat.VecDense
	ax.MulVec(l.A, mat.NewVecDense(n, x.Clone()))
	bu.MulVec(l.B, mat.NewVecDense(m, []float64(u.Clone())))
	ax.AddVec(&ax, &bu)

	dx := make(dynamo.State, n)
	for i := range dx {
		dx[i] = ax.AtVec(i)
	}
	return dx, nil
}
