package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/landau/internal/lattice"
)

// SpatialSpectrum returns the radially averaged power spectrum of the
// mean-removed amplitude field. Bin k collects wavevectors with
// |k| in [k-0.5, k+0.5), for k = 0..N/2.
func SpatialSpectrum(f *lattice.Field) []float64 {
	n := f.N
	amp := f.Amplitudes()
	mean := 0.0
	for _, a := range amp {
		mean += a
	}
	mean /= float64(len(amp))

	grid := make([][]float64, n)
	for i := range grid {
		grid[i] = make([]float64, n)
		for j := range grid[i] {
			grid[i][j] = amp[i*n+j] - mean
		}
	}
	spec := fft.FFT2Real(grid)

	bins := n/2 + 1
	power := make([]float64, bins)
	counts := make([]int, bins)
	for i := 0; i < n; i++ {
		ki := freqIndex(i, n)
		for j := 0; j < n; j++ {
			kj := freqIndex(j, n)
			k := int(math.Round(math.Hypot(float64(ki), float64(kj))))
			if k >= bins {
				continue
			}
			a := cmplx.Abs(spec[i][j])
			power[k] += a * a
			counts[k]++
		}
	}
	for k := range power {
		if counts[k] > 0 {
			power[k] /= float64(counts[k]) * float64(n*n)
		}
	}
	return power
}

// DominantWavelength returns the lattice wavelength (in cells) of the
// strongest non-zero spatial mode, or 0 for a flat field.
func DominantWavelength(f *lattice.Field) float64 {
	power := SpatialSpectrum(f)
	best, bestK := 0.0, 0
	for k := 1; k < len(power); k++ {
		if power[k] > best {
			best, bestK = power[k], k
		}
	}
	if bestK == 0 {
		return 0
	}
	return float64(f.N) / float64(bestK)
}

// PowerSpectrum returns |X_k| of a real series for k < len/2.
func PowerSpectrum(data []float64) []float64 {
	spec := fft.FFTReal(data)
	ps := make([]float64, len(spec)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

func freqIndex(i, n int) int {
	if i > n/2 {
		return i - n
	}
	return i
}
