package integrators

import "github.com/san-kum/fixedgrid/internal/dynamo"

const (
	oneThird  = 1.0 / 3.0
	twoThirds = 2.0 / 3.0
)

func rk4Step(e evaluator, t0, dt, t1 float64, y0 dynamo.State, tg tags) (Increment, error) {
	f0, err := derive(e, "rk4 f0", t0, y0, tg.start)
	if err != nil {
		return Increment{}, err
	}

	dy, err := rk4AltStep(e, t0, dt, t1, y0, f0, tg.end)
	if err != nil {
		return Increment{}, err
	}
	return Increment{Dy: dy, F0: f0}, nil
}

// rk4AltStep is the 3/8 rule with stage times t0+dt/3, t0+2dt/3 and t1.
// f0 is used as the first stage and not recomputed. Only the last stage
// sits on a grid point, so only it carries a marker.
func rk4AltStep(e evaluator, t0, dt, t1 float64, y0, f0 dynamo.State, end dynamo.Perturb) (dynamo.State, error) {
	n := len(y0)
	k1 := f0
	scratch := make(dynamo.State, n)

	for i := 0; i < n; i++ {
		scratch[i] = y0[i] + dt*k1[i]*oneThird
	}
	k2, err := derive(e, "rk4 stage 2", t0+dt*oneThird, scratch, dynamo.PerturbNone)
	if err != nil {
		return nil, err
	}

	scratch = make(dynamo.State, n)
	for i := 0; i < n; i++ {
		scratch[i] = y0[i] + dt*(k2[i]-k1[i]*oneThird)
	}
	k3, err := derive(e, "rk4 stage 3", t0+dt*twoThirds, scratch, dynamo.PerturbNone)
	if err != nil {
		return nil, err
	}

	scratch = make(dynamo.State, n)
	for i := 0; i < n; i++ {
		scratch[i] = y0[i] + dt*(k1[i]-k2[i]+k3[i])
	}
	k4, err := derive(e, "rk4 stage 4", t1, scratch, end)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		result[i] = (k1[i] + 3*(k2[i]+k3[i]) + k4[i]) * dt * 0.125
	}
	return result, nil
}
