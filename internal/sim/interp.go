package sim

import "github.com/san-kum/fixedgrid/internal/dynamo"

func linearInterp(t0, t1 float64, y0, y1 dynamo.State, t float64) dynamo.State {
	if t == t0 {
		return y0.Clone()
	}
	if t == t1 {
		return y1.Clone()
	}
	slope := (t - t0) / (t1 - t0)
	out := make(dynamo.State, len(y0))
	for i := range out {
		out[i] = y0[i] + slope*(y1[i]-y0[i])
	}
	return out
}

// cubicHermite interpolates with the endpoint slopes f0 and f1.
func cubicHermite(t0, t1 float64, y0, f0, y1, f1 dynamo.State, t float64) dynamo.State {
	if t == t0 {
		return y0.Clone()
	}
	if t == t1 {
		return y1.Clone()
	}
	dt := t1 - t0
	h := (t - t0) / dt
	h00 := (1 + 2*h) * (1 - h) * (1 - h)
	h10 := h * (1 - h) * (1 - h)
	h01 := h * h * (3 - 2*h)
	h11 := h * h * (h - 1)

	out := make(dynamo.State, len(y0))
	for i := range out {
		out[i] = h00*y0[i] + h10*dt*f0[i] + h01*y1[i] + h11*dt*f1[i]
	}
	return out
}
