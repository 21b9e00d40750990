package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/landau/internal/config"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/experiment"
	"github.com/san-kum/landau/internal/metrics"
)

func builder(t *testing.T) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := config.DefaultConfig()
		cfg.Size = 6
		cfg.Steps = 150
		cfg.Coupling = [3]float64{}
		for k, v := range params {
			switch k {
			case "lambda":
				cfg.Lambda = v
			case "omega":
				cfg.Omega = v
			default:
				t.Fatalf("unexpected parameter %s", k)
			}
		}
		return experiment.New(cfg, []dynamo.Metric{metrics.NewMeanAmplitude()})
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("Linspace = %v, want %v", got, want)
		}
	}
	if got := Linspace(3, 7, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("single point = %v", got)
	}
}

func TestGridSearchMinimizesAmplitude(t *testing.T) {
	g := NewGridSearch(
		[]string{"lambda", "omega"},
		[][]float64{{0.05, 0.2, 0.4}, {0.1, 0.3}},
	)
	if g.Size() != 6 {
		t.Errorf("Size = %d, want 6", g.Size())
	}

	best, val, err := g.Search(context.Background(), builder(t), "mean_amplitude")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if best["lambda"] != 0.05 {
		t.Errorf("best lambda = %v, want 0.05", best["lambda"])
	}
	if val <= 0 || math.IsInf(val, 0) {
		t.Errorf("best value = %v", val)
	}
}

func TestGridSearchErrors(t *testing.T) {
	g := NewGridSearch([]string{"lambda"}, [][]float64{{0.1}, {0.2}})
	if _, _, err := g.Search(context.Background(), builder(t), "mean_amplitude"); err == nil {
		t.Error("expected error for mismatched ranges")
	}

	g = NewGridSearch([]string{"lambda"}, [][]float64{{0.1}})
	if _, _, err := g.Search(context.Background(), builder(t), "energy"); err == nil {
		t.Error("expected error for unrecorded metric")
	}

	failing := func(map[string]float64) (*experiment.Experiment, error) {
		return nil, errors.New("boom")
	}
	if _, _, err := g.Search(context.Background(), failing, "mean_amplitude"); !errors.Is(err, ErrNoCandidate) {
		t.Errorf("expected ErrNoCandidate, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := g.Search(ctx, builder(t), "mean_amplitude"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
