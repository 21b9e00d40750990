package integrators

import "github.com/san-kum/landau/internal/dynamo"

// Classical tableau: stage s is evaluated at t + c[s]·dt from
// x + c[s]·dt·k[s-1], and the stages are combined with weights 1, 2, 2, 1.
var rk4Nodes = [4]float64{0, 0.5, 0.5, 1}

// RK4 is the classical four-stage Runge-Kutta method. Every stage derives
// the full intermediate lattice, so coupling seen at a stage is computed
// from that stage's neighbors rather than from the start-of-step field.
// Stage buffers are kept between steps; the returned state is always a
// fresh slice.
type RK4 struct {
	k     [4]dynamo.State
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.stage) != n {
		for s := range r.k {
			r.k[s] = make(dynamo.State, n)
		}
		r.stage = make(dynamo.State, n)
	}
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	for s, c := range rk4Nodes {
		in := x
		if s > 0 {
			h := c * dt
			prev := r.k[s-1]
			for i := 0; i < n; i++ {
				r.stage[i] = x[i] + h*prev[i]
			}
			in = r.stage
		}
		deriveInto(dyn, in, u, t+c*dt, r.k[s])
	}

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return result
}

// deriveInto evaluates dyn at (x, u, t) into out, without an extra
// allocation when dyn supports it.
func deriveInto(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, out dynamo.State) {
	if ip, ok := dyn.(dynamo.InPlaceSystem); ok {
		ip.DeriveInto(x, u, t, out)
		return
	}
	copy(out, dyn.Derive(x, u, t))
}
