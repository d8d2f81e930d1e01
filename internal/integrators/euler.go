package integrators

import "github.com/san-kum/fixedgrid/internal/dynamo"

func eulerStep(e evaluator, t0, dt, t1 float64, y0 dynamo.State, tg tags) (Increment, error) {
	f0, err := derive(e, "euler f0", t0, y0, tg.start)
	if err != nil {
		return Increment{}, err
	}

	dy := make(dynamo.State, len(y0))
	for i := range dy {
		dy[i] = dt * f0[i]
	}
	return Increment{Dy: dy, F0: f0}, nil
}
