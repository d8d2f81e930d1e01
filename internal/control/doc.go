// Package control provides sources of the exogenous input u.
//
// Every source implements [dynamo.Controller]. The fixed-grid driver samples
// it once per step, at the step's start time and state, and the integrators
// hold that value across the step:
//
//   - [Schedule]: sampled signal with zero-order hold
//   - [Constant]: fixed vector, adjustable between runs
//   - [SignalFunc]: open-loop u(t) from a plain function
//   - [PID], [LQR]: feedback controllers
//   - [None]: zero control of a given dimension
//
// # Usage
//
//	sched, _ := control.NewSchedule([]float64{0, 1, 2}, []dynamo.Control{{0}, {1}, {0}})
//	s := sim.New(stepper, sim.WithController(sched))
//	res, err := s.RunControlled(ctx, model.Derive, x0, cfg)
//
// Controllers implementing [dynamo.Configurable] support tuning by name.
package control
