package analysis

import (
	"math"

	"github.com/san-kum/landau/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent using the
// trajectory separation method. The perturbation is spread evenly over
// every component so lattice states are disturbed everywhere at once.
// A positive value indicates sensitive dependence on initial conditions.
//
// Algorithm:
// 1. Run two nearby trajectories under the same forcing u
// 2. Measure their divergence after each step
// 3. λ ≈ mean of ln(|δx|/δx₀) / dt, renormalizing δx to δx₀ after each step
func LyapunovExponent(
	dyn dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	u dynamo.Control,
	dt float64,
	steps int,
	perturbation float64,
) float64 {
	if len(x0) == 0 || steps <= 0 || perturbation <= 0 {
		return 0
	}

	x := x0.Clone()
	xp := x0.Clone()
	shift := perturbation / math.Sqrt(float64(len(x0)))
	for i := range xp {
		xp[i] += shift
	}
	d0 := perturbation

	if u == nil {
		u = make(dynamo.Control, dyn.ControlDim())
	}

	sumLog := 0.0
	count := 0
	t := 0.0

	for s := 0; s < steps; s++ {
		x = integ.Step(dyn, x, u, t, dt)
		xp = integ.Step(dyn, xp, u, t, dt)
		t += dt

		sep := xp.Sub(x).Norm()
		if sep > 0 {
			sumLog += math.Log(sep / d0)
			count++

			scale := d0 / sep
			for i := range xp {
				xp[i] = x[i] + (xp[i]-x[i])*scale
			}
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}
