package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/integrators"
)

// ExactFunc returns the exact state at t.
type ExactFunc func(t float64) dynamo.State

// ErrorKind selects which error a convergence study measures.
type ErrorKind int

const (
	// Local is the error of a single step from an exact start.
	Local ErrorKind = iota
	// Global is the error at a fixed end time after many steps.
	Global
)

func (k ErrorKind) String() string {
	if k == Global {
		return "global"
	}
	return "local"
}

// Sample is one level of a convergence study.
type Sample struct {
	Dt    float64
	Error float64
	// Ratio is the previous level's error over this one; zero on the first level.
	Ratio float64
	// Order is the observed order of the scheme; zero on the first level.
	Order float64
}

// LocalError takes one step of size dt from (t0, y0) and returns the
// Euclidean distance to exact(t0+dt).
func LocalError(s *integrators.Stepper, f dynamo.Func, t0 float64, y0 dynamo.State, dt float64, exact ExactFunc) (float64, error) {
	inc, err := s.Step(f, t0, dt, t0+dt, y0)
	if err != nil {
		return 0, err
	}
	return y0.Add(inc.Dy).Sub(exact(t0 + dt)).Norm(), nil
}

// GlobalError takes n equal steps from t0 to t1 and returns the distance to
// exact(t1).
func GlobalError(s *integrators.Stepper, f dynamo.Func, t0, t1 float64, y0 dynamo.State, n int, exact ExactFunc) (float64, error) {
	if n < 1 || !(t1 > t0) {
		return 0, fmt.Errorf("global error over [%g, %g] in %d steps: %w", t0, t1, n, dynamo.ErrInvalidGrid)
	}
	h := (t1 - t0) / float64(n)
	y := y0.Clone()
	for k := 0; k < n; k++ {
		ta := t0 + float64(k)*h
		tb := t0 + float64(k+1)*h
		if k == n-1 {
			tb = t1
		}
		inc, err := s.Step(f, ta, tb-ta, tb, y)
		if err != nil {
			return 0, &dynamo.StepError{Step: k, Time: ta, Scheme: s.Scheme().String(), Wrapped: err}
		}
		y = y.Add(inc.Dy)
	}
	return y.Sub(exact(t1)).Norm(), nil
}

// MaxHalvings bounds an order study. A global study at the last level takes
// 2^MaxHalvings steps, and well before that round-off swamps the
// truncation error being measured.
const MaxHalvings = 20

// ObservedOrder measures the error at dt, dt/2, ... for halvings+1 levels.
// For Global the integration interval is [t0, t0+dt] split into 2^k steps.
func ObservedOrder(s *integrators.Stepper, f dynamo.Func, t0 float64, y0 dynamo.State, dt float64, halvings int, exact ExactFunc, kind ErrorKind) ([]Sample, error) {
	if dt <= 0 || halvings < 1 {
		return nil, fmt.Errorf("order study needs dt > 0 and at least one halving: %w", dynamo.ErrInvalidGrid)
	}
	if halvings > MaxHalvings {
		return nil, fmt.Errorf("order study with %d halvings, at most %d allowed: %w", halvings, MaxHalvings, dynamo.ErrInvalidGrid)
	}

	samples := make([]Sample, 0, halvings+1)
	for k := 0; k <= halvings; k++ {
		h := dt / math.Exp2(float64(k))

		var e float64
		var err error
		if kind == Global {
			e, err = GlobalError(s, f, t0, t0+dt, y0, 1<<k, exact)
		} else {
			e, err = LocalError(s, f, t0, y0, h, exact)
		}
		if err != nil {
			return samples, err
		}

		sample := Sample{Dt: h, Error: e}
		if k > 0 && e > 0 {
			sample.Ratio = samples[k-1].Error / e
			sample.Order = math.Log2(sample.Ratio)
			if kind == Local {
				sample.Order--
			}
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
