package coupling

import "math"

// Tap is a single non-zero stencil entry at offset (DI, DJ).
type Tap struct {
	DI, DJ int
	W      float64
}

// Kernel is an odd-sized square stencil.
type Kernel struct {
	Name    string
	Weights [][]float64
	taps    []Tap
}

func NewKernel(name string, weights [][]float64) Kernel {
	k := Kernel{Name: name, Weights: weights}
	half := len(weights) / 2
	for ki, row := range weights {
		for kj, w := range row {
			if w != 0 {
				k.taps = append(k.taps, Tap{DI: ki - half, DJ: kj - half, W: w})
			}
		}
	}
	return k
}

func (k Kernel) Size() int   { return len(k.Weights) }
func (k Kernel) Taps() []Tap { return k.taps }

// ring builds the Manhattan ring of radius d as a (2d+1)×(2d+1) stencil.
func ring(d int) [][]float64 {
	size := 2*d + 1
	w := make([][]float64, size)
	for i := range w {
		w[i] = make([]float64, size)
		for j := range w[i] {
			if abs(i-d)+abs(j-d) == d {
				w[i][j] = 1
			}
		}
	}
	return w
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var (
	Distance1 = NewKernel("distance1", ring(1))
	Distance2 = NewKernel("distance2", ring(2))
	Distance3 = NewKernel("distance3", ring(3))

	// Kernels pairs index-for-index with Params.Coupling.
	Kernels = [3]Kernel{Distance1, Distance2, Distance3}

	// Laplacian is the 5-point discrete Laplacian.
	Laplacian = NewKernel("laplacian", [][]float64{
		{0, 1, 0},
		{1, -4, 1},
		{0, 1, 0},
	})
)

// GaussianKernel returns a size×size Gaussian stencil normalized to sum 1.
func GaussianKernel(size int, sigma float64) Kernel {
	half := size / 2
	w := make([][]float64, size)
	sum := 0.0
	for i := -half; i <= half; i++ {
		w[i+half] = make([]float64, size)
		for j := -half; j <= half; j++ {
			v := math.Exp(-float64(i*i+j*j) / (2 * sigma * sigma))
			w[i+half][j+half] = v
			sum += v
		}
	}
	for i := range w {
		for j := range w[i] {
			w[i][j] /= sum
		}
	}
	return NewKernel("gaussian", w)
}

// Convolve applies k to a scalar n×n field with periodic boundaries,
// writing into out.
func Convolve(src []float64, n int, k Kernel, out []float64) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for _, t := range k.taps {
				sum += t.W * src[wrap(i+t.DI, n)*n+wrap(j+t.DJ, n)]
			}
			out[i*n+j] = sum
		}
	}
}

func wrap(k, n int) int {
	k %= n
	if k < 0 {
		k += n
	}
	return k
}
