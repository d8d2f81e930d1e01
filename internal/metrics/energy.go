package metrics

import (
	"math"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// EnergyDrift tracks how far a conservative model's energy wanders from its
// value at the first observed grid point. Drift is relative to that value,
// or absolute when it is zero.
type EnergyDrift struct {
	sys      dynamo.Hamiltonian
	started  bool
	initial  float64
	last     float64
	maxDrift float64
}

func NewEnergyDrift(sys dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{sys: sys}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	energy := e.sys.Energy(x)
	if !e.started {
		e.initial = energy
		e.started = true
	}
	e.last = e.drift(energy)
	e.maxDrift = math.Max(e.maxDrift, math.Abs(e.last))
}

func (e *EnergyDrift) drift(energy float64) float64 {
	if e.initial == 0 {
		return energy
	}
	return (energy - e.initial) / math.Abs(e.initial)
}

func (e *EnergyDrift) ObserveFinal(x dynamo.State, t float64) { e.Observe(x, nil, t) }

// Value is the largest absolute drift seen.
func (e *EnergyDrift) Value() float64 { return e.maxDrift }

// Last is the signed drift at the most recent observation, the end of the
// grid after a completed run. Explicit schemes
// on an undamped oscillator gain energy, so Euler runs show a positive value.
func (e *EnergyDrift) Last() float64 { return e.last }

func (e *EnergyDrift) Reset() {
	e.started = false
	e.initial = 0
	e.last = 0
	e.maxDrift = 0
}
