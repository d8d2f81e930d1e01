package integrators

import "github.com/san-kum/fixedgrid/internal/dynamo"

// midpointStep takes a provisional half step with f0 and uses the slope
// there. The midpoint call is an interior point and is never tagged.
func midpointStep(e evaluator, t0, dt, t1 float64, y0 dynamo.State, tg tags) (Increment, error) {
	halfDt := 0.5 * dt

	f0, err := derive(e, "midpoint f0", t0, y0, tg.start)
	if err != nil {
		return Increment{}, err
	}

	yMid := make(dynamo.State, len(y0))
	for i := range y0 {
		yMid[i] = y0[i] + f0[i]*halfDt
	}

	fMid, err := derive(e, "midpoint f(t+dt/2)", t0+halfDt, yMid, dynamo.PerturbNone)
	if err != nil {
		return Increment{}, err
	}

	dy := make(dynamo.State, len(y0))
	for i := range dy {
		dy[i] = dt * fMid[i]
	}
	return Increment{Dy: dy, F0: f0}, nil
}
