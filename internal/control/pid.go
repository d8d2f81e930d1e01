package control

import (
	"fmt"
	"math"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// PID drives x[0] toward Target. The derivative acts on the measurement, so
// changing Target does not kick the output. The integral and derivative
// terms use the times Compute is called with, which must increase.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	// Limit saturates |u| when positive. The integral is frozen while the
	// output is saturated.
	Limit float64

	integral float64
	prevX    float64
	prevT    float64
	primed   bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, Target: target}
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) == 0 {
		return dynamo.Control{0}
	}
	y := x[0]
	e := p.Target - y

	dt := t - p.prevT
	if !p.primed || dt <= 0 {
		if !p.primed {
			p.prevX, p.prevT, p.primed = y, t, true
		}
		return dynamo.Control{p.clamp(p.Kp*e + p.Ki*p.integral)}
	}

	rate := -(y - p.prevX) / dt
	integral := p.integral + e*dt
	raw := p.Kp*e + p.Ki*integral + p.Kd*rate
	u := p.clamp(raw)
	if u == raw {
		p.integral = integral
	}

	p.prevX, p.prevT = y, t
	return dynamo.Control{u}
}

func (p *PID) clamp(u float64) float64 {
	if p.Limit <= 0 {
		return u
	}
	return math.Max(-p.Limit, math.Min(p.Limit, u))
}

// Reset clears the integral and the stored measurement.
func (p *PID) Reset() {
	p.integral = 0
	p.prevX = 0
	p.prevT = 0
	p.primed = false
}

func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
		"Limit":  p.Limit,
	}
}

func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	case "Limit":
		if value < 0 {
			return fmt.Errorf("pid: limit %g: %w", value, dynamo.ErrParameterBounds)
		}
		p.Limit = value
	default:
		return fmt.Errorf("pid: unknown parameter %q: %w", name, dynamo.ErrParameterBounds)
	}
	return nil
}
