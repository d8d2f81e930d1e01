package metrics

import (
	"math"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// Stability is the fraction of grid points, the end point included, holding
// a finite state inside [-bound, bound] on every component. A fixed-step scheme run past its
// stability limit shows up here long before it produces NaN.
type Stability struct {
	bound      float64
	violations int
	samples    int
	escape     float64
}

func NewStability(bound float64) *Stability {
	return &Stability{bound: bound, escape: math.NaN()}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if x.IsValid() && x.MaxAbs() <= s.bound {
		return
	}
	s.violations++
	if math.IsNaN(s.escape) {
		s.escape = t
	}
}

func (s *Stability) ObserveFinal(x dynamo.State, t float64) { s.Observe(x, nil, t) }

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return 1 - float64(s.violations)/float64(s.samples)
}

// EscapeTime is the first grid time the state left the bound, NaN if it never did.
func (s *Stability) EscapeTime() float64 { return s.escape }

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.escape = math.NaN()
}
