package integrators

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

type call struct {
	t          float64
	p          dynamo.Perturb
	hasControl bool
	u          dynamo.Control
}

// recorder wraps a derivative and keeps every call signature it sees.
type recorder struct {
	calls []call
	rhs   func(t float64, y dynamo.State) dynamo.State
}

func (r *recorder) plain(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
	r.calls = append(r.calls, call{t: t, p: p})
	return r.rhs(t, y), nil
}

func (r *recorder) controlled(t float64, y dynamo.State, u dynamo.Control, p dynamo.Perturb) (dynamo.State, error) {
	r.calls = append(r.calls, call{t: t, p: p, hasControl: true, u: u})
	return r.rhs(t, y), nil
}

func (r *recorder) tags() []dynamo.Perturb {
	out := make([]dynamo.Perturb, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.p
	}
	return out
}

func constant(k ...float64) func(float64, dynamo.State) dynamo.State {
	return func(float64, dynamo.State) dynamo.State {
		return append(dynamo.State(nil), k...)
	}
}

func decay(_ float64, y dynamo.State) dynamo.State {
	return y.Scale(-1)
}

func growth(_ float64, y dynamo.State) dynamo.State {
	return y.Clone()
}

func mustStepper(s Scheme, perturb bool) *Stepper {
	st, err := New(s, WithPerturb(perturb))
	Expect(err).NotTo(HaveOccurred())
	return st
}

func localError(s Scheme, dt float64) float64 {
	st := mustStepper(s, false)
	r := &recorder{rhs: growth}
	inc, err := st.Step(r.plain, 0, dt, dt, dynamo.State{1})
	Expect(err).NotTo(HaveOccurred())
	return math.Abs(math.Exp(dt) - (1 + inc.Dy[0]))
}

var _ = Describe("Scheme", func() {
	It("parses configuration names", func() {
		for _, tc := range []struct {
			name string
			want Scheme
		}{
			{"euler", Euler},
			{"Midpoint", Midpoint},
			{" RK4 ", RK4},
		} {
			got, err := ParseScheme(tc.name)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(tc.want))
		}
	})

	It("rejects unknown names", func() {
		_, err := ParseScheme("dopri5")
		Expect(err).To(MatchError(dynamo.ErrUnknownScheme))
	})

	It("reports order and evaluation counts", func() {
		Expect(Euler.Order()).To(Equal(1))
		Expect(Midpoint.Order()).To(Equal(2))
		Expect(RK4.Order()).To(Equal(4))
		Expect(RK4.Evaluations()).To(Equal(4))
		Expect(RK4.String()).To(Equal("rk4"))
		Expect(Scheme(9).String()).To(Equal("scheme(9)"))
	})

	It("refuses to build a stepper for an unknown scheme", func() {
		_, err := New(Scheme(9))
		Expect(err).To(MatchError(dynamo.ErrUnknownScheme))
	})

	It("builds steppers by name", func() {
		st, err := NewByName("midpoint", true)
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Scheme()).To(Equal(Midpoint))
		Expect(st.Perturb()).To(BeTrue())
		Expect(st.Order()).To(Equal(2))

		_, err = NewByName("leapfrog", false)
		Expect(err).To(MatchError(dynamo.ErrUnknownScheme))
	})
})

var _ = Describe("Stepper", func() {
	DescribeTable("returns a zero increment for a zero derivative",
		func(s Scheme) {
			r := &recorder{rhs: constant(0, 0, 0)}
			inc, err := mustStepper(s, false).Step(r.plain, 0, 0.1, 0.1, dynamo.State{1, -2, 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(inc.Dy).To(Equal(dynamo.State{0, 0, 0}))
			Expect(inc.F0).To(Equal(dynamo.State{0, 0, 0}))
		},
		Entry("euler", Euler),
		Entry("midpoint", Midpoint),
		Entry("rk4", RK4),
	)

	DescribeTable("preserves a constant derivative exactly",
		func(s Scheme) {
			r := &recorder{rhs: constant(2.5, -1.25)}
			dt := 0.1
			inc, err := mustStepper(s, true).Step(r.plain, 0, dt, dt, dynamo.State{7, 7})
			Expect(err).NotTo(HaveOccurred())
			Expect(inc.Dy).To(Equal(dynamo.State{dt * 2.5, dt * -1.25}))
		},
		Entry("euler", Euler),
		Entry("midpoint", Midpoint),
		Entry("rk4", RK4),
	)

	DescribeTable("calls the derivative a fixed number of times per step",
		func(s Scheme, want int) {
			r := &recorder{rhs: decay}
			_, err := mustStepper(s, false).Step(r.plain, 0, 0.1, 0.1, dynamo.State{1})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.calls).To(HaveLen(want))
			Expect(s.Evaluations()).To(Equal(want))

			atStart := 0
			for _, c := range r.calls {
				if c.t == 0 {
					atStart++
				}
			}
			Expect(atStart).To(Equal(1))
		},
		Entry("euler", Euler, 1),
		Entry("midpoint", Midpoint, 2),
		Entry("rk4", RK4, 4),
	)

	DescribeTable("shows the expected local error ratio when dt is halved",
		func(s Scheme) {
			ratio := localError(s, 0.1) / localError(s, 0.05)
			want := math.Pow(2, float64(s.Order()+1))
			Expect(ratio).To(BeNumerically("~", want, 0.05*want))
		},
		Entry("euler", Euler),
		Entry("midpoint", Midpoint),
		Entry("rk4", RK4),
	)

	It("matches the hand-computed euler step for y' = -y", func() {
		r := &recorder{rhs: decay}
		inc, err := mustStepper(Euler, false).Step(r.plain, 0, 0.1, 0.1, dynamo.State{1.0})
		Expect(err).NotTo(HaveOccurred())
		Expect(inc.Dy[0]).To(BeNumerically("~", -0.1, 1e-15))
		Expect(inc.F0[0]).To(Equal(-1.0))
	})

	It("matches exp(-0.1) with rk4 for y' = -y", func() {
		r := &recorder{rhs: decay}
		y0 := dynamo.State{1.0}
		inc, err := mustStepper(RK4, true).Step(r.plain, 0, 0.1, 0.1, y0)
		Expect(err).NotTo(HaveOccurred())
		y1 := y0.Add(inc.Dy)
		Expect(y1[0]).To(BeNumerically("~", 0.904837, 5e-6))
		Expect(y1[0]).To(BeNumerically("~", math.Exp(-0.1), 1e-6))
	})

	It("samples rk4 stages at the 3/8-rule times", func() {
		r := &recorder{rhs: decay}
		_, err := mustStepper(RK4, false).Step(r.plain, 1, 0.3, 1.3, dynamo.State{1})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.calls).To(HaveLen(4))
		Expect(r.calls[0].t).To(Equal(1.0))
		Expect(r.calls[1].t).To(BeNumerically("~", 1.1, 1e-12))
		Expect(r.calls[2].t).To(BeNumerically("~", 1.2, 1e-12))
		Expect(r.calls[3].t).To(Equal(1.3))
	})

	It("evaluates the midpoint slope half way through the step", func() {
		r := &recorder{rhs: decay}
		_, err := mustStepper(Midpoint, false).Step(r.plain, 2, 0.5, 2.5, dynamo.State{1})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.calls[1].t).To(Equal(2.25))
	})

	It("does not mutate the caller's state", func() {
		y0 := dynamo.State{1, 2}
		for _, s := range Schemes() {
			r := &recorder{rhs: decay}
			inc, err := mustStepper(s, true).Step(r.plain, 0, 0.1, 0.1, y0)
			Expect(err).NotTo(HaveOccurred())
			Expect(y0).To(Equal(dynamo.State{1, 2}))
			Expect(inc.Dy).To(HaveLen(2))
			Expect(inc.F0).To(HaveLen(2))
		}
	})
})

var _ = Describe("Perturbation tagging", func() {
	DescribeTable("tags boundary evaluations when enabled",
		func(s Scheme, want []dynamo.Perturb) {
			r := &recorder{rhs: decay}
			_, err := mustStepper(s, true).Step(r.plain, 0, 0.1, 0.1, dynamo.State{1})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.tags()).To(Equal(want))
		},
		Entry("euler", Euler, []dynamo.Perturb{dynamo.PerturbNext}),
		Entry("midpoint", Midpoint, []dynamo.Perturb{dynamo.PerturbNext, dynamo.PerturbNone}),
		Entry("rk4", RK4, []dynamo.Perturb{dynamo.PerturbNext, dynamo.PerturbNone, dynamo.PerturbNone, dynamo.PerturbPrev}),
	)

	DescribeTable("leaves every evaluation untagged when disabled",
		func(s Scheme) {
			r := &recorder{rhs: decay}
			_, err := mustStepper(s, false).StepControl(r.controlled, 0, 0.1, 0.1, dynamo.State{1}, dynamo.Control{3})
			Expect(err).NotTo(HaveOccurred())
			for _, p := range r.tags() {
				Expect(p).To(Equal(dynamo.PerturbNone))
			}
		},
		Entry("euler", Euler),
		Entry("midpoint", Midpoint),
		Entry("rk4", RK4),
	)

	It("samples a jump at t1 from inside the step", func() {
		// y' = 1 before t=1 and 100 from t=1 on.
		jump := func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
			if p.Shift(t) >= 1 {
				return dynamo.State{100}, nil
			}
			return dynamo.State{1}, nil
		}

		tagged, err := mustStepper(RK4, true).Step(jump, 0.5, 0.5, 1, dynamo.State{0})
		Expect(err).NotTo(HaveOccurred())
		Expect(tagged.Dy[0]).To(Equal(0.5))

		untagged, err := mustStepper(RK4, false).Step(jump, 0.5, 0.5, 1, dynamo.State{0})
		Expect(err).NotTo(HaveOccurred())
		Expect(untagged.Dy[0]).To(BeNumerically(">", 0.5))
	})
})

var _ = Describe("Control input", func() {
	DescribeTable("passes u to every call of a with-control step",
		func(s Scheme) {
			r := &recorder{rhs: decay}
			u := dynamo.Control{0.25, -1}
			_, err := mustStepper(s, true).StepControl(r.controlled, 0, 0.1, 0.1, dynamo.State{1}, u)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.calls).To(HaveLen(s.Evaluations()))
			for _, c := range r.calls {
				Expect(c.hasControl).To(BeTrue())
				Expect(c.u).To(Equal(u))
			}
		},
		Entry("euler", Euler),
		Entry("midpoint", Midpoint),
		Entry("rk4", RK4),
	)

	DescribeTable("never passes u to a without-control step",
		func(s Scheme) {
			r := &recorder{rhs: decay}
			_, err := mustStepper(s, true).Step(r.plain, 0, 0.1, 0.1, dynamo.State{1})
			Expect(err).NotTo(HaveOccurred())
			for _, c := range r.calls {
				Expect(c.hasControl).To(BeFalse())
			}
		},
		Entry("euler", Euler),
		Entry("midpoint", Midpoint),
		Entry("rk4", RK4),
	)

	It("fails fast when the control value is missing", func() {
		r := &recorder{rhs: decay}
		inc, err := mustStepper(Euler, false).StepControl(r.controlled, 0, 0.1, 0.1, dynamo.State{1}, nil)
		Expect(err).To(MatchError(dynamo.ErrMissingControl))
		Expect(inc.Dy).To(BeNil())
		Expect(r.calls).To(BeEmpty())
	})

	It("fails fast on a nil derivative", func() {
		_, err := mustStepper(RK4, false).Step(nil, 0, 0.1, 0.1, dynamo.State{1})
		Expect(err).To(MatchError(dynamo.ErrMissingDerivative))

		_, err = mustStepper(RK4, false).StepControl(nil, 0, 0.1, 0.1, dynamo.State{1}, dynamo.Control{0})
		Expect(err).To(MatchError(dynamo.ErrMissingDerivative))
	})
})

var _ = Describe("Failures", func() {
	boom := errors.New("boom")

	DescribeTable("propagate derivative errors unchanged",
		func(s Scheme, failOn int) {
			n := 0
			f := func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
				n++
				if n == failOn {
					return nil, boom
				}
				return y.Scale(-1), nil
			}
			inc, err := mustStepper(s, true).Step(f, 0, 0.1, 0.1, dynamo.State{1})
			Expect(err).To(BeIdenticalTo(boom))
			Expect(inc).To(Equal(Increment{}))
		},
		Entry("euler f0", Euler, 1),
		Entry("midpoint slope", Midpoint, 2),
		Entry("rk4 stage 3", RK4, 3),
		Entry("rk4 stage 4", RK4, 4),
	)

	DescribeTable("report a derivative of the wrong shape",
		func(s Scheme) {
			f := func(t float64, y dynamo.State, p dynamo.Perturb) (dynamo.State, error) {
				return dynamo.State{1, 2, 3}, nil
			}
			inc, err := mustStepper(s, false).Step(f, 0, 0.1, 0.1, dynamo.State{1, 2})
			Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
			Expect(inc).To(Equal(Increment{}))
		},
		Entry("euler", Euler),
		Entry("midpoint", Midpoint),
		Entry("rk4", RK4),
	)
})
