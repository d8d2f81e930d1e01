package control

import (
	"sync"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// Constant returns the same control vector at every sample.
type Constant struct {
	mu sync.RWMutex
	u  dynamo.Control
}

func NewConstant(u dynamo.Control) *Constant {
	return &Constant{u: u.Clone()}
}

// Set replaces the held vector. Lengths must match the current vector.
func (c *Constant) Set(u dynamo.Control) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(u) != len(c.u) {
		return dynamo.ErrDimensionMismatch
	}
	copy(c.u, u)
	return nil
}

func (c *Constant) Compute(x dynamo.State, t float64) dynamo.Control {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.u.Clone()
}
