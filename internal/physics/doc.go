// Package physics provides the oscillator dynamics of the lattice.
//
// [Landau] implements [dynamo.System] for the whole N×N Stuart-Landau
// lattice; [Derivative] is the pure per-cell normal form it evaluates:
//
//	dz/dt = (λ - |z|²)z + iωz + C(z) + I
//
// where C is the coupling field and I the real-axis forcing. Landau also
// implements [dynamo.InPlaceSystem] so integrators reuse their stage
// buffers. Parameters change only through [Landau.SetParams], which the
// simulator calls from Configure.
//
// # Example
//
//	sys := physics.NewLandau(params, grid.Links, perturb.New(params.Size), rng)
//	next := integrators.NewRK4().Step(sys, grid.Field.Z, u, t, params.Dt)
package physics
