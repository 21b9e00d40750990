package lattice

import (
	"fmt"
	"math"

	"github.com/san-kum/landau/internal/dynamo"
)

// Field is an N×N toroidal lattice of complex oscillator values. Cell
// (i, j) occupies Z[2k] (real) and Z[2k+1] (imaginary) with k = i*N + j.
type Field struct {
	N int
	Z dynamo.State
}

func NewField(n int) (*Field, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", dynamo.ErrInvalidGridSize, n)
	}
	return &Field{N: n, Z: make(dynamo.State, 2*n*n)}, nil
}

// FieldFrom wraps an existing interleaved state. The slice is not copied.
func FieldFrom(n int, z dynamo.State) (*Field, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", dynamo.ErrInvalidGridSize, n)
	}
	if len(z) != 2*n*n {
		return nil, fmt.Errorf("%w: state has %d values, lattice needs %d", dynamo.ErrDimensionMismatch, len(z), 2*n*n)
	}
	return &Field{N: n, Z: z}, nil
}

// Wrap maps any integer index onto [0, n).
func Wrap(k, n int) int {
	k %= n
	if k < 0 {
		k += n
	}
	return k
}

func (f *Field) Cells() int { return f.N * f.N }

// Index returns the offset of the real component of (i, j), wrapping both
// coordinates.
func (f *Field) Index(i, j int) int {
	return 2 * (Wrap(i, f.N)*f.N + Wrap(j, f.N))
}

func (f *Field) At(i, j int) (re, im float64) {
	k := f.Index(i, j)
	return f.Z[k], f.Z[k+1]
}

func (f *Field) Set(i, j int, re, im float64) {
	k := f.Index(i, j)
	f.Z[k], f.Z[k+1] = re, im
}

func (f *Field) Amplitude(i, j int) float64 {
	re, im := f.At(i, j)
	return math.Hypot(re, im)
}

func (f *Field) Phase(i, j int) float64 {
	re, im := f.At(i, j)
	return math.Atan2(im, re)
}

// Amplitudes returns |z| for every cell in row-major order.
func (f *Field) Amplitudes() []float64 {
	out := make([]float64, f.Cells())
	for k := range out {
		out[k] = math.Hypot(f.Z[2*k], f.Z[2*k+1])
	}
	return out
}

// Phases returns arg(z) for every cell in row-major order.
func (f *Field) Phases() []float64 {
	out := make([]float64, f.Cells())
	for k := range out {
		out[k] = math.Atan2(f.Z[2*k+1], f.Z[2*k])
	}
	return out
}

func (f *Field) Clone() *Field {
	return &Field{N: f.N, Z: f.Z.Clone()}
}
