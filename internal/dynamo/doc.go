// Package dynamo provides the core primitives shared by the fixed-grid
// integrators and the driver that advances them.
//
// The package defines:
//
//   - [State] and [Control]: state and exogenous input vectors
//   - [Perturb]: the marker telling a derivative whether its time argument is
//     exact, an instant before it, or an instant after it
//   - [Func] and [ControlFunc]: the two derivative call conventions
//   - [System] and [ControlledSystem]: model capabilities behind them
//   - [Controller]: a source of control values, sampled at grid times
//
// # Example
//
//	dyn := models.NewDecay(1.0)
//	st, _ := integrators.New(integrators.RK4, integrators.WithPerturb(true))
//	inc, err := st.Step(dyn.Derive, 0, 0.1, 0.1, dynamo.State{1})
//	y1 := dynamo.State{1}.Add(inc.Dy)
//
// # Perturbation
//
// A derivative that is piecewise in time (or driven by a control signal that
// jumps at grid points) should resolve its time argument through
// [Perturb.Shift]. With perturbation enabled the integrators tag the
// evaluation at a step's start with [PerturbNext] and the evaluation at its
// end with [PerturbPrev], so every sample falls strictly inside the step.
package dynamo
