package models

import (
	"fmt"
	"math"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// Pendulum is a point mass on a rigid rod with viscous damping at the pivot,
// driven by a pivot torque u[0]. State is [theta, omega] with theta measured
// from the hanging position.
//
//	m L^2 omega' = -c omega - m g L sin(theta) + u
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{Mass: 1, Length: 1, Damping: 0.1, Gravity: 9.81}
}

func (p *Pendulum) StateDim() int   { return 2 }
func (p *Pendulum) ControlDim() int { return 1 }

func (p *Pendulum) inertia() float64 { return p.Mass * p.Length * p.Length }

// gravityTorque is the torque gravity exerts at angle theta.
func (p *Pendulum) gravityTorque(theta float64) float64 {
	return -p.Mass * p.Gravity * p.Length * math.Sin(theta)
}

func (p *Pendulum) Derive(t float64, x dynamo.State, u dynamo.Control, pt dynamo.Perturb) (dynamo.State, error) {
	if err := checkDims(x, 2); err != nil {
		return nil, err
	}
	if err := checkControl(u, 1); err != nil {
		return nil, err
	}
	theta, omega := x[0], x[1]
	torque := p.gravityTorque(theta) - p.Damping*omega + u[0]
	return dynamo.State{omega, torque / p.inertia()}, nil
}

// Energy is kinetic plus potential energy, zero at rest hanging down.
func (p *Pendulum) Energy(x dynamo.State) float64 {
	theta, omega := x[0], x[1]
	return 0.5*p.inertia()*omega*omega + p.Mass*p.Gravity*p.Length*(1-math.Cos(theta))
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

// SetParam rejects a non-positive mass or length and negative damping or
// gravity.
func (p *Pendulum) SetParam(name string, value float64) error {
	var field *float64
	positive := false
	switch name {
	case "mass":
		field, positive = &p.Mass, true
	case "length":
		field, positive = &p.Length, true
	case "damping":
		field = &p.Damping
	case "gravity":
		field = &p.Gravity
	default:
		return unknownParam("pendulum", name)
	}
	if value < 0 || (positive && value == 0) || math.IsNaN(value) {
		return fmt.Errorf("pendulum: %s = %g: %w", name, value, dynamo.ErrParameterBounds)
	}
	*field = value
	return nil
}
