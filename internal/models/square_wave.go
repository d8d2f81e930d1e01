package models

import (
	"math"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// SquareWave is y' = +Amplitude on the first half of each period and
// -Amplitude on the second. The slope jumps at every multiple of Period/2,
// so the marker decides which side a boundary evaluation sees.
type SquareWave struct {
	Amplitude float64
	Period    float64
}

func NewSquareWave(amplitude, period float64) *SquareWave {
	return &SquareWave{Amplitude: amplitude, Period: period}
}

func (s *SquareWave) StateDim() int { return 1 }

func (s *SquareWave) slope(t float64) float64 {
	phase := math.Mod(t, s.Period)
	if phase < 0 {
		phase += s.Period
	}
	if phase < s.Period/2 {
		return s.Amplitude
	}
	return -s.Amplitude
}

func (s *SquareWave) Derive(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
	if err := checkDims(y, 1); err != nil {
		return nil, err
	}
	return dynamo.State{s.slope(p.Shift(t))}, nil
}

// Exact integrates the wave piecewise: a triangle of height A*P/2.
func (s *SquareWave) Exact(t0 float64, y0 dynamo.State, t float64) dynamo.State {
	return dynamo.State{y0[0] + s.triangle(t) - s.triangle(t0)}
}

func (s *SquareWave) triangle(t float64) float64 {
	phase := math.Mod(t, s.Period)
	if phase < 0 {
		phase += s.Period
	}
	half := s.Period / 2
	if phase < half {
		return s.Amplitude * phase
	}
	return s.Amplitude * (s.Period - phase)
}

func (s *SquareWave) GetParams() map[string]float64 {
	return map[string]float64{"amplitude": s.Amplitude, "period": s.Period}
}

func (s *SquareWave) SetParam(name string, value float64) error {
	switch name {
	case "amplitude":
		s.Amplitude = value
	case "period":
		if value <= 0 {
			return unknownParam("square_wave", name)
		}
		s.Period = value
	default:
		return unknownParam("square_wave", name)
	}
	return nil
}
