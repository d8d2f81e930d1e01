package models

import (
	"github.com/san-kum/fixedgrid/internal/dynamo"
)

const (
	DefaultMass      = 1.0
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// SpringMass is a chain of masses joined by springs, the first one pushed
// by an external force u[0]. State is positions then velocities.
type SpringMass struct {
	NumMasses int
	Masses    []float64
	Stiffness []float64
	Damping   []float64
}

func NewSpringMass() *SpringMass {
	return &SpringMass{
		NumMasses: 1,
		Masses:    []float64{DefaultMass},
		Stiffness: []float64{DefaultStiffness},
		Damping:   []float64{DefaultDamping},
	}
}

func NewSpringMassChain(n int) *SpringMass {
	masses := make([]float64, n)
	stiffness := make([]float64, n+1)
	damping := make([]float64, n)

	for i := 0; i < n; i++ {
		masses[i] = DefaultMass
		stiffness[i] = DefaultStiffness
		damping[i] = 0.2
	}
	stiffness[n] = DefaultStiffness

	return &SpringMass{
		NumMasses: n,
		Masses:    masses,
		Stiffness: stiffness,
		Damping:   damping,
	}
}

func (s *SpringMass) StateDim() int   { return s.NumMasses * 2 }
func (s *SpringMass) ControlDim() int { return 1 }

func (s *SpringMass) Derive(t float64, x dynamo.State, u dynamo.Control, p dynamo.Perturb) (dynamo.State, error) {
	n := s.NumMasses
	if err := checkDims(x, 2*n); err != nil {
		return nil, err
	}
	if err := checkControl(u, 1); err != nil {
		return nil, err
	}
	dx := make(dynamo.State, n*2)

	for i := 0; i < n; i++ {
		dx[i] = x[n+i]
	}

	for i := 0; i < n; i++ {
		pos, vel := x[i], x[n+i]

		var forceLeft, forceRight float64
		if i == 0 {
			forceLeft = -s.Stiffness[0] * pos
		} else {
			forceLeft = -s.Stiffness[i] * (pos - x[i-1])
		}

		if i == n-1 {
			if len(s.Stiffness) > n {
				forceRight = -s.Stiffness[n] * pos
			}
		} else {
			forceRight = -s.Stiffness[i+1] * (pos - x[i+1])
		}

		totalForce := forceLeft + forceRight - s.Damping[i]*vel
		if i == 0 {
			totalForce += u[0]
		}
		dx[n+i] = totalForce / s.Masses[i]
	}

	return dx, nil
}

func (s *SpringMass) Energy(x dynamo.State) float64 {
	n := s.NumMasses
	energy := 0.0

	for i := 0; i < n; i++ {
		v := x[n+i]
		energy += 0.5 * s.Masses[i] * v * v
	}

	for i := 0; i < n; i++ {
		pos := x[i]
		if i == 0 {
			energy += 0.5 * s.Stiffness[0] * pos * pos
		} else {
			stretch := pos - x[i-1]
			energy += 0.5 * s.Stiffness[i] * stretch * stretch
		}
	}

	if len(s.Stiffness) > n {
		energy += 0.5 * s.Stiffness[n] * x[n-1] * x[n-1]
	}

	return energy
}

// GetParams exposes the first mass, spring and damper.
func (s *SpringMass) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":      s.Masses[0],
		"stiffness": s.Stiffness[0],
		"damping":   s.Damping[0],
	}
}

// SetParam applies a value to every element of the named kind.
func (s *SpringMass) SetParam(name string, value float64) error {
	var target []float64
	switch name {
	case "mass":
		if value <= 0 {
			return unknownParam("spring_mass", name)
		}
		target = s.Masses
	case "stiffness":
		target = s.Stiffness
	case "damping":
		target = s.Damping
	default:
		return unknownParam("spring_mass", name)
	}
	for i := range target {
		target[i] = value
	}
	return nil
}
