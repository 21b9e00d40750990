// Package perturb models the localized disturbance ("attack") injected into
// the lattice and the decaying excitability residual it leaves behind.
package perturb

import (
	"math"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
)

// KickAmplitude is the width of the uniform kick applied to every region
// cell when an attack starts.
const KickAmplitude = 0.5

// Model holds the per-cell persistent residual. The residual is always
// non-negative and only grows while an attack is active.
type Model struct {
	n        int
	residual []float64
}

func New(n int) *Model {
	return &Model{n: n, residual: make([]float64, n*n)}
}

// InRegion reports whether (i, j) lies in the centered square of half-side
// halfWidth*N. Bounds are compared as reals, so odd sizes split the same
// way the region is drawn.
func InRegion(i, j, n int, halfWidth float64) bool {
	c := float64(n) / 2
	h := halfWidth * float64(n)
	fi, fj := float64(i), float64(j)
	return fi >= c-h && fi < c+h && fj >= c-h && fj < c+h
}

// Lambda returns the local bifurcation parameter at (i, j).
func (m *Model) Lambda(i, j int, p dynamo.Params) float64 {
	if p.Attack.Active && InRegion(i, j, m.n, p.Attack.HalfWidth) {
		return p.Lambda * p.Attack.Gain
	}
	return p.Lambda + m.residual[i*m.n+j]
}

// Input returns the external forcing at (i, j). Inside an active region
// the constant input is raised by a uniform draw in [0, NoiseAmp) with
// probability NoiseProb.
func (m *Model) Input(i, j int, p dynamo.Params, rng lattice.Source) float64 {
	if !p.Attack.Active || !InRegion(i, j, m.n, p.Attack.HalfWidth) {
		return 0
	}
	in := p.Attack.Input
	if rng.Float64() < p.Attack.NoiseProb {
		in += rng.Float64() * p.Attack.NoiseAmp
	}
	return in
}

// Lambdas fills out with the local bifurcation parameter of every cell.
func (m *Model) Lambdas(p dynamo.Params, out []float64) {
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			out[i*m.n+j] = m.Lambda(i, j, p)
		}
	}
}

// Inputs fills u with one forcing sample per cell.
func (m *Model) Inputs(p dynamo.Params, rng lattice.Source, u dynamo.Control) {
	if !p.Attack.Active {
		for k := range u {
			u[k] = 0
		}
		return
	}
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			u[i*m.n+j] = m.Input(i, j, p, rng)
		}
	}
}

// Advance updates the residual once per integration step. Positive values
// decay geometrically and snap to zero below the threshold; while an
// attack is active, region cells are raised to at least λ(K-1).
func (m *Model) Advance(p dynamo.Params) {
	if !p.Attack.Persistent {
		return
	}
	a := p.Attack
	for k, r := range m.residual {
		if r <= 0 {
			m.residual[k] = 0
			continue
		}
		r *= a.Decay
		if r < a.Threshold {
			r = 0
		}
		m.residual[k] = r
	}
	if !a.Active {
		return
	}
	lift := p.Lambda*a.Gain - p.Lambda
	if lift <= 0 {
		return
	}
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			if InRegion(i, j, m.n, a.HalfWidth) {
				k := i*m.n + j
				m.residual[k] = math.Max(m.residual[k], lift)
			}
		}
	}
}

// Kick perturbs every region cell of f by a uniform draw in
// [-KickAmplitude/2, KickAmplitude/2) on both components.
func (m *Model) Kick(f *lattice.Field, p dynamo.Params, rng lattice.Source) {
	for i := 0; i < f.N; i++ {
		for j := 0; j < f.N; j++ {
			if !InRegion(i, j, f.N, p.Attack.HalfWidth) {
				continue
			}
			k := f.Index(i, j)
			f.Z[k] += KickAmplitude * (rng.Float64() - 0.5)
			f.Z[k+1] += KickAmplitude * (rng.Float64() - 0.5)
		}
	}
}

func (m *Model) Residual(i, j int) float64 {
	return m.residual[i*m.n+j]
}

// Residuals returns a copy of the residual field.
func (m *Model) Residuals() []float64 {
	out := make([]float64, len(m.residual))
	copy(out, m.residual)
	return out
}

// Active counts cells with a positive residual.
func (m *Model) Active() int {
	count := 0
	for _, r := range m.residual {
		if r > 0 {
			count++
		}
	}
	return count
}

func (m *Model) Reset() {
	for k := range m.residual {
		m.residual[k] = 0
	}
}
