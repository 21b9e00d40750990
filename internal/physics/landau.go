package physics

import (
	"github.com/san-kum/landau/internal/compute"
	"github.com/san-kum/landau/internal/coupling"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
	"github.com/san-kum/landau/internal/perturb"
)

// Derivative is the Stuart-Landau normal form for one cell with external
// coupling (cr, ci) and real-axis forcing input:
//
//	dx/dt = (λ - |z|²)x - ωy + cr + input
//	dy/dt = (λ - |z|²)y + ωx + ci
func Derivative(x, y, lambda, omega, cr, ci, input float64) (dx, dy float64) {
	g := lambda - (x*x + y*y)
	dx = g*x - omega*y + cr + input
	dy = g*y + omega*x + ci
	return dx, dy
}

// Landau is the coupled N×N Stuart-Landau lattice as a single ODE system.
// Every Derive call recomputes the coupling over the whole lattice from
// the state it is given, so multi-stage integrators see consistent
// neighbor values at each stage.
// State: interleaved [re₀, im₀, re₁, im₁, ...], length 2N².
// Control: one forcing value per cell, length N².
type Landau struct {
	params  dynamo.Params
	links   lattice.Links
	perturb *perturb.Model
	rng     lattice.Source

	engine   *coupling.Engine
	coupling dynamo.State
	lambdas  []float64
}

func NewLandau(p dynamo.Params, links lattice.Links, model *perturb.Model, rng lattice.Source) *Landau {
	n := p.Size
	l := &Landau{
		params:   p,
		links:    links,
		perturb:  model,
		rng:      rng,
		engine:   coupling.NewEngine(),
		coupling: make(dynamo.State, 2*n*n),
		lambdas:  make([]float64, n*n),
	}
	l.Prepare()
	return l
}

func (l *Landau) StateDim() int   { return 2 * l.params.Size * l.params.Size }
func (l *Landau) ControlDim() int { return l.params.Size * l.params.Size }

// Prepare refreshes the per-cell bifurcation parameters from the
// perturbation model. Call once per step, after the model advances.
func (l *Landau) Prepare() {
	if l.perturb == nil {
		for k := range l.lambdas {
			l.lambdas[k] = l.params.Lambda
		}
		return
	}
	l.perturb.Lambdas(l.params, l.lambdas)
}

// SetParams replaces the step configuration. The lattice size must not
// change; use a new Landau for that.
func (l *Landau) SetParams(p dynamo.Params) {
	l.params = p
	l.Prepare()
}

func (l *Landau) Params() dynamo.Params { return l.params }

func (l *Landau) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	l.DeriveInto(x, u, t, dx)
	return dx
}

// DeriveInto writes the derivative of x into dx. A state of the wrong
// length yields a zero derivative.
func (l *Landau) DeriveInto(x dynamo.State, u dynamo.Control, _ float64, dx dynamo.State) {
	n := l.params.Size
	if len(x) != 2*n*n || len(dx) != len(x) {
		for k := range dx {
			dx[k] = 0
		}
		return
	}

	f := &lattice.Field{N: n, Z: x}
	l.engine.Compute(f, l.links, l.params, l.coupling)

	perStage := l.params.Attack.Active && l.params.Attack.Noise == dynamo.NoisePerStage && l.perturb != nil
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := i*n + j
			var input float64
			switch {
			case perStage:
				input = l.perturb.Input(i, j, l.params, l.rng)
			case c < len(u):
				input = u[c]
			}
			dx[2*c], dx[2*c+1] = Derivative(x[2*c], x[2*c+1], l.lambdas[c], l.params.Omega,
				l.coupling[2*c], l.coupling[2*c+1], input)
		}
	}
}

// SetBackend selects the row executor of the coupling computation.
func (l *Landau) SetBackend(b compute.Backend) { l.engine.SetBackend(b) }
