package control

import (
	"github.com/san-kum/fixedgrid/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// LQR applies u = -K (x - target).
type LQR struct {
	K      *mat.Dense
	Target dynamo.State
}

func NewLQR(k [][]float64, target dynamo.State) *LQR {
	rows, cols := len(k), 0
	if rows > 0 {
		cols = len(k[0])
	}
	data := make([]float64, 0, rows*cols)
	for _, row := range k {
		padded := make([]float64, cols)
		copy(padded, row)
		data = append(data, padded...)
	}
	var gain *mat.Dense
	if rows > 0 && cols > 0 {
		gain = mat.NewDense(rows, cols, data)
	}
	return &LQR{K: gain, Target: target}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	if l.K == nil {
		return dynamo.Control{}
	}
	rows, cols := l.K.Dims()

	err := mat.NewVecDense(cols, nil)
	for j := 0; j < cols && j < len(x); j++ {
		target := 0.0
		if j < len(l.Target) {
			target = l.Target[j]
		}
		err.SetVec(j, x[j]-target)
	}

	var out mat.VecDense
	out.MulVec(l.K, err)

	u := make(dynamo.Control, rows)
	for i := range u {
		u[i] = -out.AtVec(i)
	}
	return u
}

var (
	pendulumGains = [][]float64{{31.62, 10.0}}
	springGains   = [][]float64{{10.0, 6.32}}
)

func NewPendulumLQR() *LQR {
	return NewLQR(pendulumGains, dynamo.State{0, 0})
}

func NewSpringMassLQR() *LQR {
	return NewLQR(springGains, dynamo.State{0, 0})
}
