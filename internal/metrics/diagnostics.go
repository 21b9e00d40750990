package metrics

import (
	"math"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
)

const (
	// AmplitudeThreshold filters near-zero cells out of the amplitude
	// statistics.
	AmplitudeThreshold = 0.01
	// HistogramBins is the default bin count of AmplitudeStats.Histogram.
	HistogramBins = 20
)

var orthogonal = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Dissonance averages A_i·A_j·(1 - cos(θ_i - θ_j)) over the four toroidal
// neighbors of each cell and then over all cells. It is zero for a
// synchronized field and never negative.
func Dissonance(f *lattice.Field) float64 {
	if f == nil || f.N == 0 {
		return 0
	}
	n := f.N
	amp := f.Amplitudes()
	phase := f.Phases()

	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := i*n + j
			local := 0.0
			for _, o := range orthogonal {
				nb := lattice.Wrap(i+o[0], n)*n + lattice.Wrap(j+o[1], n)
				local += amp[c] * amp[nb] * (1 - math.Cos(phase[c]-phase[nb]))
			}
			total += local / float64(len(orthogonal))
		}
	}
	return total / float64(n*n)
}

// binEdgeTolerance absorbs rounding for amplitudes that sit on a bin edge.
const binEdgeTolerance = 1e-9

// AmplitudeStatistics summarizes amplitudes above threshold. The histogram
// has equal-width bins over [Min, Max] and stays empty when the filtered
// range is degenerate.
func AmplitudeStatistics(f *lattice.Field, threshold float64, bins int) dynamo.AmplitudeStats {
	stats := dynamo.AmplitudeStats{Histogram: make([]int, bins)}
	if f == nil {
		return stats
	}

	filtered := make([]float64, 0, f.Cells())
	for _, a := range f.Amplitudes() {
		if a > threshold {
			filtered = append(filtered, a)
		}
	}
	if len(filtered) == 0 {
		return stats
	}

	stats.Min, stats.Max = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, a := range filtered {
		stats.Min = math.Min(stats.Min, a)
		stats.Max = math.Max(stats.Max, a)
		sum += a
	}
	stats.Count = len(filtered)
	stats.Mean = sum / float64(len(filtered))

	span := stats.Max - stats.Min
	if span <= 0 || bins == 0 {
		return stats
	}
	for _, a := range filtered {
		// values on a bin edge belong to the upper bin
		b := int(math.Floor((a-stats.Min)*float64(bins)/span + binEdgeTolerance))
		stats.Histogram[min(max(b, 0), bins-1)]++
	}
	return stats
}

// OrderParameter returns the Kuramoto coherence |<e^{iθ}>| over cells with
// non-zero amplitude, in [0, 1].
func OrderParameter(f *lattice.Field) float64 {
	if f == nil {
		return 0
	}
	var sx, sy float64
	count := 0
	for c := 0; c < f.Cells(); c++ {
		re, im := f.Z[2*c], f.Z[2*c+1]
		a := math.Hypot(re, im)
		if a == 0 {
			continue
		}
		sx += re / a
		sy += im / a
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Hypot(sx, sy) / float64(count)
}

// Diagnose computes the full per-step summary of f.
func Diagnose(f *lattice.Field, step int, t float64) dynamo.Diagnostics {
	return dynamo.Diagnostics{
		Step:       step,
		Time:       t,
		Dissonance: Dissonance(f),
		Coherence:  OrderParameter(f),
		Amplitude:  AmplitudeStatistics(f, AmplitudeThreshold, HistogramBins),
	}
}
