// Package compute provides the execution backends used for per-row
// lattice work.
//
//   - CPU: one goroutine per worker, each owning a contiguous band of rows
//   - Serial: everything on the calling goroutine
//
// Serial is the default. Small lattices run serially on every backend:
//
//	backend := compute.GetBackend()
//	backend.Rows(n, func(lo, hi int) {
//	    for i := lo; i < hi; i++ {
//	        // row i
//	    }
//	})
package compute
