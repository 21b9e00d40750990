package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidGridSize indicates a lattice size below one.
	ErrInvalidGridSize = errors.New("dynamo: grid size must be positive")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the integration step diverged.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a non-finite parameter value.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched state/lattice dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	ErrUnknownScheme = errors.New("dynamo: unknown integration scheme")
	ErrUnknownMode   = errors.New("dynamo: unknown mode")
	ErrUnknownParam  = errors.New("dynamo: unknown parameter")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
