package metrics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
)

func uniformField(n int, re, im float64) *lattice.Field {
	f, _ := lattice.NewField(n)
	for c := 0; c < f.Cells(); c++ {
		f.Z[2*c], f.Z[2*c+1] = re, im
	}
	return f
}

func TestDissonanceSynchronized(t *testing.T) {
	f := uniformField(10, 0.3, -0.4)
	if d := Dissonance(f); math.Abs(d) > 1e-15 {
		t.Errorf("Dissonance = %v, want 0", d)
	}
	if r := OrderParameter(f); math.Abs(r-1) > 1e-12 {
		t.Errorf("OrderParameter = %v, want 1", r)
	}
}

func TestDissonanceNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for trial := 0; trial < 20; trial++ {
		g, err := lattice.Initialize(1+rng.Intn(12), rng, lattice.PatternUniform)
		if err != nil {
			t.Fatal(err)
		}
		if d := Dissonance(g.Field); d < 0 {
			t.Fatalf("trial %d: dissonance %v < 0", trial, d)
		}
	}
}

func TestDissonanceDegenerate(t *testing.T) {
	if d := Dissonance(nil); d != 0 {
		t.Errorf("Dissonance(nil) = %v", d)
	}
	if d := Dissonance(&lattice.Field{}); d != 0 {
		t.Errorf("Dissonance(empty) = %v", d)
	}
}

func TestDissonanceCheckerboard(t *testing.T) {
	// Opposite phases on a 2-colouring: every pair contributes A²·2.
	f, _ := lattice.NewField(4)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			s := 1.0
			if (i+j)%2 == 1 {
				s = -1
			}
			f.Set(i, j, 0.5*s, 0)
		}
	}
	if d := Dissonance(f); math.Abs(d-0.5) > 1e-12 {
		t.Errorf("Dissonance = %v, want 0.5", d)
	}
}

func TestAmplitudeStatistics(t *testing.T) {
	f, _ := lattice.NewField(2)
	f.Set(0, 0, 0.001, 0) // filtered
	f.Set(0, 1, 0.2, 0)
	f.Set(1, 0, 0, 0.6)
	f.Set(1, 1, 1.0, 0)

	s := AmplitudeStatistics(f, AmplitudeThreshold, 4)
	if s.Count != 3 {
		t.Fatalf("Count = %d, want 3", s.Count)
	}
	if s.Min != 0.2 || s.Max != 1.0 {
		t.Errorf("range = [%v,%v], want [0.2,1]", s.Min, s.Max)
	}
	if math.Abs(s.Mean-0.6) > 1e-12 {
		t.Errorf("Mean = %v, want 0.6", s.Mean)
	}
	want := []int{1, 0, 1, 1}
	for b := range want {
		if s.Histogram[b] != want[b] {
			t.Errorf("Histogram = %v, want %v", s.Histogram, want)
			break
		}
	}
}

func TestAmplitudeStatisticsBinEdges(t *testing.T) {
	f, _ := lattice.NewField(3)
	amps := []float64{0.2, 0.4, 0.6, 0.8, 1.0, 0.3}
	for c, a := range amps {
		f.Z[2*c] = a
	}

	s := AmplitudeStatistics(f, AmplitudeThreshold, 4)
	// edges at 0.4, 0.6 and 0.8 start the next bin; the maximum stays in the last
	want := []int{2, 1, 1, 2}
	for b := range want {
		if s.Histogram[b] != want[b] {
			t.Fatalf("Histogram = %v, want %v", s.Histogram, want)
		}
	}
}

func TestAmplitudeStatisticsDegenerateRange(t *testing.T) {
	s := AmplitudeStatistics(uniformField(5, 0.3, 0.4), AmplitudeThreshold, HistogramBins)
	if s.Min != s.Max {
		t.Fatalf("expected min == max, got %v, %v", s.Min, s.Max)
	}
	for b, c := range s.Histogram {
		if c != 0 {
			t.Fatalf("bin %d = %d, histogram should be skipped", b, c)
		}
	}
	if s.Count != 25 {
		t.Errorf("Count = %d, want 25", s.Count)
	}
}

func TestAmplitudeStatisticsAllFiltered(t *testing.T) {
	s := AmplitudeStatistics(uniformField(3, 0, 0), AmplitudeThreshold, HistogramBins)
	if s.Count != 0 || s.Mean != 0 || s.Min != 0 || s.Max != 0 {
		t.Errorf("expected zero stats, got %+v", s)
	}
}

func TestMetrics(t *testing.T) {
	steps := []dynamo.Diagnostics{
		{Dissonance: 0.2, Coherence: 0.5, Amplitude: dynamo.AmplitudeStats{Mean: 0.1, Max: 0.5}},
		{Dissonance: 0.4, Coherence: 0.7, Amplitude: dynamo.AmplitudeStats{Mean: 0.3, Max: 20}},
	}

	tests := []struct {
		metric dynamo.Metric
		want   float64
	}{
		{NewMeanDissonance(), 0.3},
		{NewFinalDissonance(), 0.4},
		{NewMeanAmplitude(), 0.2},
		{NewMeanCoherence(), 0.6},
		{NewStability(10), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.metric.Name(), func(t *testing.T) {
			for _, d := range steps {
				tt.metric.Observe(d)
			}
			if got := tt.metric.Value(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Value = %v, want %v", got, tt.want)
			}
			tt.metric.Reset()
			if tt.metric.Name() != "stability" && tt.metric.Value() != 0 {
				t.Errorf("Value after reset = %v", tt.metric.Value())
			}
		})
	}
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.OnStep(dynamo.Diagnostics{Step: i, Dissonance: float64(i), Coherence: 1 / float64(i)})
	}
	if h.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", h.Len())
	}
	if got := h.Dissonance(); got[0] != 3 || got[2] != 5 {
		t.Errorf("dissonance = %v, want [3 4 5]", got)
	}
	if h.Items()[0].Step != 3 {
		t.Errorf("oldest step = %d, want 3", h.Items()[0].Step)
	}
	h.Reset()
	if h.Len() != 0 {
		t.Error("reset should empty the history")
	}

	all := NewHistory(0)
	for i := 0; i < 100; i++ {
		all.OnStep(dynamo.Diagnostics{Step: i})
	}
	if all.Len() != 100 {
		t.Errorf("unbounded history kept %d items", all.Len())
	}
}
