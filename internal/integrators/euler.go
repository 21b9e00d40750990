package integrators

import "github.com/san-kum/landau/internal/dynamo"

// Euler is the explicit first-order step x + dt·f(x). It keeps one
// derivative buffer sized to the lattice.
type Euler struct {
	dx dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	if len(e.dx) != len(x) {
		e.dx = make(dynamo.State, len(x))
	}
	deriveInto(dyn, x, u, t, e.dx)

	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*e.dx[i]
	}
	return result
}
