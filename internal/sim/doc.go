// Package sim drives the oscillator lattice one step at a time.
//
// A [Simulator] owns the grid, the perturbation residual and the
// integrator. Each [Simulator.Step] runs the perturbation update, the
// whole-lattice integration and the diagnostics in order and returns the
// diagnostics. [Ensemble] repeats a run over several seeds.
//
//	s, err := sim.New(params, rand.New(rand.NewSource(1)), sim.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	err = s.Run(ctx, 1000, func(d dynamo.Diagnostics) bool {
//	    fmt.Println(d.Dissonance)
//	    return true
//	})
package sim
