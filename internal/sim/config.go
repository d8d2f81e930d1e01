package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// Interpolation selects how outputs between grid points are produced.
type Interpolation uint8

const (
	Linear Interpolation = iota
	// Cubic is a Hermite interpolant through both ends and their slopes.
	// It costs one extra derivative evaluation per step.
	Cubic
)

func (i Interpolation) String() string {
	if i == Cubic {
		return "cubic"
	}
	return "linear"
}

func ParseInterpolation(name string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	}
	return Linear, fmt.Errorf("unknown interpolation %q", name)
}

// Config describes one fixed-grid run.
type Config struct {
	// Times are the output times, strictly increasing. The first is the
	// initial time.
	Times []float64

	// StepSize, if > 0, lays a uniform grid over [Times[0], Times[last]].
	// Otherwise the grid is Times itself.
	StepSize float64

	Interpolation Interpolation

	// ValidateState stops the run on the first NaN or Inf.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Times:         Linspace(0, 10, 101),
		StepSize:      0.01,
		Interpolation: Linear,
		ValidateState: true,
	}
}

func (c Config) validate() error {
	if len(c.Times) < 2 {
		return fmt.Errorf("need at least 2 output times, got %d: %w", len(c.Times), dynamo.ErrInvalidGrid)
	}
	for i, t := range c.Times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("output time %d is %v: %w", i, t, dynamo.ErrInvalidGrid)
		}
		if i > 0 && t <= c.Times[i-1] {
			return fmt.Errorf("output times must be strictly increasing at index %d: %w", i, dynamo.ErrInvalidGrid)
		}
	}
	if c.StepSize < 0 || math.IsNaN(c.StepSize) || math.IsInf(c.StepSize, 0) {
		return fmt.Errorf("step size must be non-negative and finite, got %v: %w", c.StepSize, dynamo.ErrInvalidGrid)
	}
	return nil
}

// Grid returns the time points the integrator will stop at.
func (c Config) Grid() ([]float64, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.StepSize == 0 {
		grid := make([]float64, len(c.Times))
		copy(grid, c.Times)
		return grid, nil
	}

	start, end := c.Times[0], c.Times[len(c.Times)-1]
	// The small tolerance keeps a ratio like 10.000000000000002 from adding
	// a sliver step at the end.
	n := int(math.Ceil((end-start)/c.StepSize - 1e-9))
	if n < 1 {
		n = 1
	}
	grid := make([]float64, 0, n+1)
	for k := 0; k < n; k++ {
		grid = append(grid, start+float64(k)*c.StepSize)
	}
	return append(grid, end), nil
}

// Linspace returns n evenly spaced points from a to b inclusive.
func Linspace(a, b float64, n int) []float64 {
	if n < 2 {
		return []float64{a}
	}
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	out[n-1] = b
	return out
}
