package metrics

import (
	"math"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// ControlEffort is the RMS Euclidean norm of the per-step input. The input is
// held over each grid step, so every observation carries equal weight on a
// uniform grid.
type ControlEffort struct {
	sumSq   float64
	peak    float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	var sq float64
	for _, v := range u {
		sq += v * v
		c.peak = math.Max(c.peak, math.Abs(v))
	}
	c.sumSq += sq
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return math.Sqrt(c.sumSq / float64(c.samples))
}

// Peak is the largest absolute input component seen.
func (c *ControlEffort) Peak() float64 { return c.peak }

func (c *ControlEffort) Reset() {
	c.sumSq = 0
	c.peak = 0
	c.samples = 0
}
