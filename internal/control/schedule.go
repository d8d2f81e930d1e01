package control

import (
	"fmt"
	"sort"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// Schedule is a sampled input signal held constant between samples. At a
// sample time the new value applies, matching how the integrators evaluate
// just after t0 when perturbation is enabled. Before the first sample the
// first value is used.
type Schedule struct {
	times  []float64
	values []dynamo.Control
}

func NewSchedule(times []float64, values []dynamo.Control) (*Schedule, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("schedule needs at least one sample")
	}
	if len(times) != len(values) {
		return nil, fmt.Errorf("schedule has %d times and %d values: %w", len(times), len(values), dynamo.ErrDimensionMismatch)
	}
	dim := len(values[0])
	for i := range times {
		if i > 0 && times[i] <= times[i-1] {
			return nil, fmt.Errorf("schedule times must be strictly increasing at index %d", i)
		}
		if len(values[i]) != dim {
			return nil, fmt.Errorf("schedule value %d has %d components, want %d: %w", i, len(values[i]), dim, dynamo.ErrDimensionMismatch)
		}
	}

	s := &Schedule{
		times:  append([]float64(nil), times...),
		values: make([]dynamo.Control, len(values)),
	}
	for i, v := range values {
		s.values[i] = v.Clone()
	}
	return s, nil
}

func (s *Schedule) Dim() int { return len(s.values[0]) }

// At returns the held value at t.
func (s *Schedule) At(t float64) dynamo.Control {
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] > t })
	if i == 0 {
		return s.values[0].Clone()
	}
	return s.values[i-1].Clone()
}

func (s *Schedule) Compute(x dynamo.State, t float64) dynamo.Control {
	return s.At(t)
}

// SignalFunc adapts an open-loop signal u(t) to a Controller.
type SignalFunc func(t float64) dynamo.Control

func (f SignalFunc) Compute(x dynamo.State, t float64) dynamo.Control {
	return f(t)
}
