// Package models provides reference systems for the fixed-grid integrators.
//
// Models without input implement [dynamo.System]; models driven by a control
// vector implement [dynamo.ControlledSystem]. A model's Derive method value
// is directly usable as a [dynamo.Func] or [dynamo.ControlFunc].
//
// Models with a closed-form solution implement [Solvable] so integration
// error can be measured against it.
package models

import (
	"fmt"

	"github.com/san-kum/fixedgrid/internal/dynamo"
)

// Solvable reports the exact state at t for the trajectory through (t0, y0).
type Solvable interface {
	Exact(t0 float64, y0 dynamo.State, t float64) dynamo.State
}

func checkDims(x dynamo.State, want int) error {
	if len(x) != want {
		return fmt.Errorf("state has %d components, want %d: %w", len(x), want, dynamo.ErrDimensionMismatch)
	}
	return nil
}

func checkControl(u dynamo.Control, want int) error {
	if len(u) < want {
		return fmt.Errorf("control has %d components, want %d: %w", len(u), want, dynamo.ErrDimensionMismatch)
	}
	return nil
}

func unknownParam(model, name string) error {
	return fmt.Errorf("%s: unknown parameter %q: %w", model, name, dynamo.ErrParameterBounds)
}
