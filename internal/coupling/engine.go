package coupling

import (
	"math"

	"github.com/san-kum/landau/internal/compute"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
)

// Epsilon is the floor applied to divisive denominators.
const Epsilon = 1e-9

// LocalNormKernel pools amplitudes for the field-level gain control.
var LocalNormKernel = GaussianKernel(5, 2)

// Engine computes coupling fields. It keeps scratch buffers between calls
// and is not safe for concurrent use. Row loops run on the engine's
// compute backend.
type Engine struct {
	backend compute.Backend
	amp     []float64
	act     []float64
	norm    []float64
}

func NewEngine() *Engine {
	return &Engine{backend: compute.GetBackend()}
}

// SetBackend replaces the row executor; nil selects serial execution.
func (e *Engine) SetBackend(b compute.Backend) {
	if b == nil {
		b = compute.Serial{}
	}
	e.backend = b
}

func (e *Engine) rows(n int, fn func(lo, hi int)) {
	if e.backend == nil {
		fn(0, n)
		return
	}
	e.backend.Rows(n, fn)
}

func (e *Engine) ensureScratch(cells int) {
	if len(e.amp) != cells {
		e.amp = make([]float64, cells)
		e.act = make([]float64, cells)
		e.norm = make([]float64, cells)
	}
}

// Compute writes the coupling field of f into out (interleaved, same
// length as f.Z) using the law selected by p.Mode.
func (e *Engine) Compute(f *lattice.Field, links lattice.Links, p dynamo.Params, out dynamo.State) {
	switch p.Mode {
	case dynamo.ModeDN:
		e.DivisiveNormalization(f, p.Coupling, p.DN, out)
	case dynamo.ModeDiffusive:
		e.rows(f.N, func(lo, hi int) { diffusiveRows(f, p.Coupling[0], out, lo, hi) })
	default:
		e.rows(f.N, func(lo, hi int) { linearRows(f, p.Coupling, p.Normalization, out, lo, hi) })
	}
	AddSmallWorld(f, links, p.SmallWorld, out)
}

// Compute is a convenience wrapper that allocates its own engine and
// output.
func Compute(f *lattice.Field, links lattice.Links, p dynamo.Params) dynamo.State {
	out := make(dynamo.State, len(f.Z))
	NewEngine().Compute(f, links, p, out)
	return out
}

// CellCoupling returns the kernel sum at (i, j). Indices wrap, so
// (N, N) addresses the same cell as (0, 0).
func CellCoupling(f *lattice.Field, i, j int, strengths [3]float64, norm dynamo.Normalization) (re, im float64) {
	total := 0.0
	for idx, k := range Kernels {
		K := strengths[idx]
		for _, t := range k.taps {
			zr, zi := f.At(i+t.DI, j+t.DJ)
			re += K * t.W * zr
			im += K * t.W * zi
			total += math.Abs(K * t.W)
		}
	}
	if norm == dynamo.NormGlobal && total > 0 {
		re /= total
		im /= total
	}
	return re, im
}

// Linear sums complex neighbor values through the distance kernels.
// Under NormGlobal each cell's sum is divided by its accumulated absolute
// weight, so strengths act as relative influence.
func Linear(f *lattice.Field, strengths [3]float64, norm dynamo.Normalization, out dynamo.State) {
	linearRows(f, strengths, norm, out, 0, f.N)
}

func linearRows(f *lattice.Field, strengths [3]float64, norm dynamo.Normalization, out dynamo.State, lo, hi int) {
	for i := lo; i < hi; i++ {
		for j := 0; j < f.N; j++ {
			k := 2 * (i*f.N + j)
			out[k], out[k+1] = CellCoupling(f, i, j, strengths, norm)
		}
	}
}

// DivisiveNormalization pools the amplitude field through the kernels into
// an activation and a normalization field, then sets each cell to
// (A*act + B) / (C*norm + D) along the cell's own phase.
func (e *Engine) DivisiveNormalization(f *lattice.Field, strengths [3]float64, dn dynamo.DNParams, out dynamo.State) {
	n := f.N
	e.ensureScratch(n * n)
	for c := range e.amp {
		e.amp[c] = math.Hypot(f.Z[2*c], f.Z[2*c+1])
		e.act[c] = 0
		e.norm[c] = 0
	}

	for idx, k := range Kernels {
		K := strengths[idx]
		if K == 0 {
			continue
		}
		e.rows(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				for j := 0; j < n; j++ {
					sum := 0.0
					for _, t := range k.taps {
						sum += t.W * e.amp[wrap(i+t.DI, n)*n+wrap(j+t.DJ, n)]
					}
					e.act[i*n+j] += K * sum
					e.norm[i*n+j] += K * dn.NormScale * sum
				}
			}
		})
	}

	for c := range e.amp {
		ratio := DNRatio(e.act[c], e.norm[c], dn)
		phase := math.Atan2(f.Z[2*c+1], f.Z[2*c])
		out[2*c] = ratio * math.Cos(phase)
		out[2*c+1] = ratio * math.Sin(phase)
	}
}

// DNRatio evaluates (A*act + B) / (C*norm + D). Denominators at or below
// zero are clamped to Epsilon.
func DNRatio(act, norm float64, dn dynamo.DNParams) float64 {
	num := dn.A*act + dn.B
	if dn.DisableDenominator {
		return num
	}
	den := dn.C*norm + dn.D
	if den < Epsilon {
		den = Epsilon
	}
	return num / den
}

// Diffusive applies K times the 5-point Laplacian to the complex field.
func Diffusive(f *lattice.Field, K float64, out dynamo.State) {
	diffusiveRows(f, K, out, 0, f.N)
}

func diffusiveRows(f *lattice.Field, K float64, out dynamo.State, lo, hi int) {
	for i := lo; i < hi; i++ {
		for j := 0; j < f.N; j++ {
			var re, im float64
			for _, t := range Laplacian.taps {
				zr, zi := f.At(i+t.DI, j+t.DJ)
				re += t.W * zr
				im += t.W * zi
			}
			k := 2 * (i*f.N + j)
			out[k] = K * re
			out[k+1] = K * im
		}
	}
}

// AddSmallWorld adds strength times the mean displacement (target - self)
// over each cell's small-world links.
func AddSmallWorld(f *lattice.Field, links lattice.Links, strength float64, out dynamo.State) {
	if strength == 0 || len(links) == 0 {
		return
	}
	for c, set := range links {
		zr, zi := f.Z[2*c], f.Z[2*c+1]
		var sr, si float64
		for _, t := range set {
			nr, ni := f.At(t.Row, t.Col)
			sr += nr - zr
			si += ni - zi
		}
		out[2*c] += strength * sr / float64(len(set))
		out[2*c+1] += strength * si / float64(len(set))
	}
}

// LocalNorm convolves the amplitude field with LocalNormKernel.
func (e *Engine) LocalNorm(f *lattice.Field, out []float64) {
	e.ensureScratch(f.Cells())
	for c := range e.amp {
		e.amp[c] = math.Hypot(f.Z[2*c], f.Z[2*c+1])
	}
	Convolve(e.amp, f.N, LocalNormKernel, out)
}
