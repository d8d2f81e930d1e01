package sim

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fixedgrid/internal/dynamo"
	"github.com/san-kum/fixedgrid/internal/integrators"
	"github.com/san-kum/fixedgrid/internal/metrics"
)

func decay(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
	return y.Scale(-1), nil
}

// startTime returns the sampling time as the control value.
type startTime struct {
	seen []float64
}

func (c *startTime) Compute(x dynamo.State, t float64) dynamo.Control {
	c.seen = append(c.seen, t)
	return dynamo.Control{t}
}

type countMetric struct {
	count int
}

func (c *countMetric) Name() string                                        { return "count" }
func (c *countMetric) Observe(x dynamo.State, u dynamo.Control, t float64) { c.count++ }
func (c *countMetric) Value() float64                                      { return float64(c.count) }
func (c *countMetric) Reset()                                              { c.count = 0 }

func stepper(s integrators.Scheme, perturb bool) *integrators.Stepper {
	st, err := integrators.New(s, integrators.WithPerturb(perturb))
	Expect(err).NotTo(HaveOccurred())
	return st
}

var _ = Describe("Config", func() {
	It("uses the output times as the grid without a step size", func() {
		cfg := Config{Times: []float64{0, 0.5, 2}}
		grid, err := cfg.Grid()
		Expect(err).NotTo(HaveOccurred())
		Expect(grid).To(Equal([]float64{0, 0.5, 2}))
	})

	It("lays a uniform grid and clamps the final point", func() {
		cfg := Config{Times: []float64{0, 1.05}, StepSize: 0.1}
		grid, err := cfg.Grid()
		Expect(err).NotTo(HaveOccurred())
		Expect(grid).To(HaveLen(12))
		Expect(grid[10]).To(BeNumerically("~", 1.0, 1e-12))
		Expect(grid[11]).To(Equal(1.05))
	})

	It("does not add a sliver step from rounding", func() {
		cfg := Config{Times: []float64{0, 0.3}, StepSize: 0.1}
		grid, err := cfg.Grid()
		Expect(err).NotTo(HaveOccurred())
		Expect(grid).To(HaveLen(4))
		Expect(grid[3]).To(Equal(0.3))
	})

	DescribeTable("rejects unusable grids",
		func(cfg Config) {
			_, err := cfg.Grid()
			Expect(err).To(MatchError(dynamo.ErrInvalidGrid))
		},
		Entry("single time", Config{Times: []float64{0}}),
		Entry("not increasing", Config{Times: []float64{0, 1, 1}}),
		Entry("decreasing", Config{Times: []float64{1, 0}}),
		Entry("NaN time", Config{Times: []float64{0, math.NaN()}}),
		Entry("negative step", Config{Times: []float64{0, 1}, StepSize: -0.1}),
	)

	It("parses interpolation names", func() {
		i, err := ParseInterpolation("Cubic")
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(Cubic))
		i, err = ParseInterpolation("")
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(Linear))
		_, err = ParseInterpolation("spline")
		Expect(err).To(HaveOccurred())
	})

	It("builds inclusive linspaces", func() {
		Expect(Linspace(0, 1, 5)).To(Equal([]float64{0, 0.25, 0.5, 0.75, 1}))
		Expect(Linspace(2, 3, 1)).To(Equal([]float64{2}))
	})
})

var _ = Describe("Simulator", func() {
	ctx := context.Background()

	It("integrates exponential decay to e^-1", func() {
		s := New(stepper(integrators.RK4, true))
		cfg := Config{Times: Linspace(0, 1, 11), StepSize: 0.01}

		res, err := s.Run(ctx, decay, dynamo.State{1}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Times).To(HaveLen(11))
		Expect(res.States).To(HaveLen(11))
		Expect(res.StepsTaken).To(Equal(100))
		Expect(res.Evaluations).To(Equal(400))
		Expect(res.Final()[0]).To(BeNumerically("~", math.Exp(-1), 1e-9))
		Expect(res.States[5][0]).To(BeNumerically("~", math.Exp(-0.5), 1e-9))
	})

	It("keeps the initial state as the first output", func() {
		s := New(stepper(integrators.Euler, false))
		y0 := dynamo.State{3}
		res, err := s.Run(ctx, decay, y0, Config{Times: []float64{0, 1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.States[0]).To(Equal(dynamo.State{3}))
		Expect(res.Final()).To(Equal(dynamo.State{0}))

		res.States[0][0] = 99
		Expect(y0[0]).To(Equal(3.0))
	})

	It("samples the controller at each step's start and threads u into every call", func() {
		ctrl := &startTime{}
		s := New(stepper(integrators.RK4, false), WithController(ctrl))
		cfg := Config{Times: []float64{0, 1}, StepSize: 0.25}

		var calls []struct{ t, u float64 }
		f := func(t float64, y dynamo.State, u dynamo.Control, p dynamo.Perturb) (dynamo.State, error) {
			calls = append(calls, struct{ t, u float64 }{t, u[0]})
			return dynamo.State{0}, nil
		}

		res, err := s.RunControlled(ctx, f, dynamo.State{0}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(ctrl.seen).To(Equal([]float64{0, 0.25, 0.5, 0.75}))
		Expect(res.Controls).To(HaveLen(4))
		Expect(calls).To(HaveLen(16))
		for i, c := range calls {
			step := i / 4
			Expect(c.u).To(Equal(res.GridTimes[step]))
			Expect(c.t).To(BeNumerically(">=", res.GridTimes[step]))
			Expect(c.t).To(BeNumerically("<=", res.GridTimes[step+1]))
		}
	})

	It("tags boundary evaluations on every step when perturb is on", func() {
		s := New(stepper(integrators.Midpoint, true))
		var tags []dynamo.Perturb
		f := func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
			tags = append(tags, p)
			return y, nil
		}
		_, err := s.Run(ctx, f, dynamo.State{1}, Config{Times: []float64{0, 0.1, 0.2}})
		Expect(err).NotTo(HaveOccurred())
		Expect(tags).To(Equal([]dynamo.Perturb{
			dynamo.PerturbNext, dynamo.PerturbNone,
			dynamo.PerturbNext, dynamo.PerturbNone,
		}))
	})

	It("refuses a controller on a system without control", func() {
		s := New(stepper(integrators.Euler, false), WithController(&startTime{}))
		_, err := s.Run(ctx, decay, dynamo.State{1}, Config{Times: []float64{0, 1}})
		Expect(err).To(MatchError(dynamo.ErrUnexpectedControl))
	})

	It("requires a controller for a controlled system", func() {
		s := New(stepper(integrators.Euler, false))
		f := func(t float64, y dynamo.State, u dynamo.Control, p dynamo.Perturb) (dynamo.State, error) {
			return y, nil
		}
		_, err := s.RunControlled(ctx, f, dynamo.State{1}, Config{Times: []float64{0, 1}})
		Expect(err).To(MatchError(dynamo.ErrMissingControl))
	})

	It("rejects a nil derivative", func() {
		s := New(stepper(integrators.Euler, false))
		_, err := s.Run(ctx, nil, dynamo.State{1}, Config{Times: []float64{0, 1}})
		Expect(err).To(MatchError(dynamo.ErrMissingDerivative))
	})

	It("stops at the first failing step and reports where", func() {
		boom := errors.New("boom")
		f := func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
			if t >= 0.3 {
				return nil, boom
			}
			return y, nil
		}
		s := New(stepper(integrators.Euler, false))
		res, err := s.Run(ctx, f, dynamo.State{1}, Config{Times: Linspace(0, 1, 11)})
		Expect(res).To(BeNil())
		Expect(errors.Is(err, boom)).To(BeTrue())

		var stepErr *dynamo.StepError
		Expect(errors.As(err, &stepErr)).To(BeTrue())
		Expect(stepErr.Step).To(Equal(3))
		Expect(stepErr.Scheme).To(Equal("euler"))
	})

	It("stops on a non-finite state when validating", func() {
		f := func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
			return dynamo.State{math.Inf(1)}, nil
		}
		s := New(stepper(integrators.Euler, false))
		_, err := s.Run(ctx, f, dynamo.State{1}, Config{Times: []float64{0, 1}, ValidateState: true})
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
	})

	It("returns the partial result when the context is canceled", func() {
		cctx, cancel := context.WithCancel(ctx)
		n := 0
		f := func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
			n++
			if n == 3 {
				cancel()
			}
			return y.Scale(-1), nil
		}
		s := New(stepper(integrators.Euler, false))
		res, err := s.Run(cctx, f, dynamo.State{1}, Config{Times: Linspace(0, 1, 11)})
		Expect(err).To(MatchError(context.Canceled))
		Expect(res).NotTo(BeNil())
		Expect(res.StepsTaken).To(Equal(3))
		Expect(res.States).To(HaveLen(4))
	})

	It("observes metrics once per step", func() {
		m := &countMetric{}
		s := New(stepper(integrators.Euler, false), WithMetric(m))
		res, err := s.Run(ctx, decay, dynamo.State{1}, Config{Times: Linspace(0, 1, 11)})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics).To(HaveKeyWithValue("count", 10.0))
	})

	It("shows the end state to metrics that ask for it", func() {
		climb := func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
			return dynamo.State{100}, nil
		}
		st := metrics.NewStability(10)
		count := &countMetric{}
		s := New(stepper(integrators.Euler, false), WithMetric(st), WithMetric(count))

		res, err := s.Run(ctx, climb, dynamo.State{0}, Config{Times: []float64{0, 0.05, 0.2}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Final()[0]).To(BeNumerically("~", 20, 1e-12))
		Expect(res.Metrics["stability"]).To(BeNumerically("~", 2.0/3.0, 1e-12))
		Expect(st.EscapeTime()).To(Equal(0.2))
		Expect(res.Metrics).To(HaveKeyWithValue("count", 2.0))
	})

	It("interpolates more accurately with cubic than linear between coarse steps", func() {
		times := []float64{0, 0.25, 0.5, 0.75, 1}
		exact := math.Exp(-0.25)

		lin, err := New(stepper(integrators.RK4, false)).Run(ctx, decay, dynamo.State{1},
			Config{Times: times, StepSize: 0.5})
		Expect(err).NotTo(HaveOccurred())

		cub, err := New(stepper(integrators.RK4, false)).Run(ctx, decay, dynamo.State{1},
			Config{Times: times, StepSize: 0.5, Interpolation: Cubic})
		Expect(err).NotTo(HaveOccurred())

		Expect(math.Abs(cub.States[1][0] - exact)).To(BeNumerically("<", math.Abs(lin.States[1][0]-exact)))
		Expect(cub.Evaluations).To(Equal(lin.Evaluations + 2))
		Expect(cub.Final()[0]).To(Equal(lin.Final()[0]))
	})
})

var _ = Describe("Ensemble", func() {
	ctx := context.Background()

	It("integrates every initial condition", func() {
		e := NewEnsemble(func() *Simulator { return New(stepper(integrators.RK4, false)) }, 2)
		inits := []dynamo.State{{1}, {2}, {-3}}

		results, err := e.Run(ctx, decay, inits, Config{Times: []float64{0, 1}, StepSize: 0.01})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for i, r := range results {
			Expect(r.Final()[0]).To(BeNumerically("~", inits[i][0]*math.Exp(-1), 1e-8))
		}
	})

	It("gives each controlled trajectory its own controller", func() {
		var built []*startTime
		e := NewEnsemble(func() *Simulator {
			c := &startTime{}
			built = append(built, c)
			return New(stepper(integrators.Euler, false), WithController(c))
		}, 1)
		f := func(t float64, y dynamo.State, u dynamo.Control, p dynamo.Perturb) (dynamo.State, error) {
			return dynamo.State{u[0]}, nil
		}

		results, err := e.RunControlled(ctx, f, []dynamo.State{{0}, {1}}, Config{Times: []float64{0, 0.5, 1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(built).To(HaveLen(2))
		for _, c := range built {
			Expect(c.seen).To(Equal([]float64{0, 0.5}))
		}
	})

	It("fails when any trajectory fails", func() {
		e := NewEnsemble(func() *Simulator { return New(stepper(integrators.Euler, false)) }, 0)
		f := func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
			if y[0] < 0 {
				return nil, errors.New("negative")
			}
			return y, nil
		}
		_, err := e.Run(ctx, f, []dynamo.State{{1}, {-1}}, Config{Times: []float64{0, 1}})
		Expect(err).To(MatchError(ContainSubstring("negative")))
	})
})
