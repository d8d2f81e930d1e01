package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

type quadratic struct{}

func (quadratic) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(quadratic{})

	m.Observe(dynamo.State{1, 0}, nil, 0)
	m.Observe(dynamo.State{1.1, 0}, nil, 0.1)
	m.Observe(dynamo.State{0.9, 0}, nil, 0.2)

	want := (0.5*1.21 - 0.5) / 0.5
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected max drift %f, got %f", want, m.Value())
	}
	if m.Last() >= 0 {
		t.Errorf("expected negative final drift, got %f", m.Last())
	}

	m.Reset()
	if m.Value() != 0 || m.Last() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestEnergyDriftZeroBaseline(t *testing.T) {
	m := NewEnergyDrift(quadratic{})

	m.Observe(dynamo.State{0, 0}, nil, 0)
	m.Observe(dynamo.State{0, 1}, nil, 0.1)

	if m.Value() != 0.5 {
		t.Errorf("expected absolute drift 0.5, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name   string
		states []dynamo.State
		want   float64
		escape float64
	}{
		{"no samples", nil, 1.0, math.NaN()},
		{"all inside", []dynamo.State{{0.5}, {-0.9}}, 1.0, math.NaN()},
		{"half outside", []dynamo.State{{0.5}, {2, 0}}, 0.5, 1},
		{"non-finite", []dynamo.State{{math.NaN()}, {0}}, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStability(1.0)
			for i, x := range tt.states {
				s.Observe(x, nil, float64(i))
			}
			if s.Value() != tt.want {
				t.Errorf("expected %f, got %f", tt.want, s.Value())
			}
			got := s.EscapeTime()
			if math.IsNaN(tt.escape) != math.IsNaN(got) || (!math.IsNaN(got) && got != tt.escape) {
				t.Errorf("expected escape at %v, got %v", tt.escape, got)
			}
		})
	}
}

func TestFinalObservation(t *testing.T) {
	var _ dynamo.FinalObserver = NewStability(1)
	var _ dynamo.FinalObserver = NewEnergyDrift(quadratic{})

	s := NewStability(1)
	s.Observe(dynamo.State{0}, nil, 0)
	s.ObserveFinal(dynamo.State{2}, 1)
	if s.Value() != 0.5 || s.EscapeTime() != 1 {
		t.Errorf("final escape missed: stability %f, escape %v", s.Value(), s.EscapeTime())
	}

	e := NewEnergyDrift(quadratic{})
	e.Observe(dynamo.State{1, 0}, nil, 0)
	e.ObserveFinal(dynamo.State{2, 0}, 1)
	if e.Last() != 3 {
		t.Errorf("expected final drift 3, got %f", e.Last())
	}
}

func TestControlEffort(t *testing.T) {
	c := NewControlEffort()
	if c.Value() != 0 {
		t.Error("expected zero effort with no samples")
	}

	c.Observe(nil, dynamo.Control{3, -4}, 0)
	c.Observe(nil, dynamo.Control{0, 0}, 0.1)

	if math.Abs(c.Value()-math.Sqrt(12.5)) > 1e-12 {
		t.Errorf("expected rms effort %f, got %f", math.Sqrt(12.5), c.Value())
	}
	if c.Peak() != 4 {
		t.Errorf("expected peak 4, got %f", c.Peak())
	}
	if c.Name() != "control_effort" {
		t.Errorf("unexpected name %q", c.Name())
	}

	c.Reset()
	if c.Value() != 0 || c.Peak() != 0 {
		t.Error("expected zero effort after reset")
	}
}
