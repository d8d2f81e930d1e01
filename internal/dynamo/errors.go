package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration operations.
var (
	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates a derivative whose length differs from the state.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and derivative")

	// ErrUnknownScheme indicates an integration scheme name that is not registered.
	ErrUnknownScheme = errors.New("dynamo: unknown integration scheme")

	// ErrMissingControl indicates a with-control step or run that has no control value.
	ErrMissingControl = errors.New("dynamo: control input required but not supplied")

	// ErrUnexpectedControl indicates a control source configured for a system that takes none.
	ErrUnexpectedControl = errors.New("dynamo: control input supplied to a system without control")

	// ErrMissingDerivative indicates a nil derivative function.
	ErrMissingDerivative = errors.New("dynamo: derivative function is nil")

	// ErrInvalidGrid indicates output times or step size that cannot form a time grid.
	ErrInvalidGrid = errors.New("dynamo: invalid time grid")

	// ErrUnknownModel indicates a model name that is not registered.
	ErrUnknownModel = errors.New("dynamo: unknown model")

	// ErrParameterBounds indicates a model or controller parameter that is unknown or out of range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownController indicates a controller name that is not registered.
	ErrUnknownController = errors.New("dynamo: unknown controller")
)

// StepError wraps a failure with the grid step it happened on.
type StepError struct {
	Step    int
	Time    float64
	Scheme  string
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f, %s): %v", e.Step, e.Time, e.Scheme, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
