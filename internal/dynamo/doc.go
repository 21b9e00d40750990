// Package dynamo provides the shared vocabulary of the oscillator lattice.
//
// The package defines the fundamental interfaces and types used by every
// other package:
//
//   - [State]: flat vector holding the interleaved complex field
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical integrator interface
//   - [Params]: immutable per-step configuration
//   - [Diagnostics]: summary metrics produced after each step
//
// # Example
//
//	p := dynamo.DefaultParams()
//	p.Mode = dynamo.ModeDN
//	if err := p.Validate(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Params and Diagnostics are plain values and safe to copy. State slices
// are owned by whoever allocated them.
package dynamo
