package experiment

import (
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/landau/internal/config"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/metrics"
)

// Registry resolves named configurations and metrics.
type Registry struct {
	presets map[string]func() *config.Config
	metrics map[string]func() dynamo.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		presets: make(map[string]func() *config.Config),
		metrics: make(map[string]func() dynamo.Metric),
	}

	for name, build := range config.Presets {
		r.presets[name] = build
	}

	r.metrics["mean_dissonance"] = func() dynamo.Metric { return metrics.NewMeanDissonance() }
	r.metrics["mean_amplitude"] = func() dynamo.Metric { return metrics.NewMeanAmplitude() }
	r.metrics["mean_coherence"] = func() dynamo.Metric { return metrics.NewMeanCoherence() }
	r.metrics["final_dissonance"] = func() dynamo.Metric { return metrics.NewFinalDissonance() }
	r.metrics["stability"] = func() dynamo.Metric { return metrics.NewStability(10) }

	return r
}

// Register adds or replaces a named configuration.
func (r *Registry) Register(name string, build func() *config.Config) {
	r.presets[name] = build
}

func (r *Registry) GetPreset(name string) (*config.Config, error) {
	fn, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	return fn(), nil
}

// Resolve treats ref as a preset name first and as a YAML config path
// otherwise. An empty ref yields the default configuration.
func (r *Registry) Resolve(ref string) (*config.Config, error) {
	if ref == "" {
		return config.DefaultConfig(), nil
	}
	if fn, ok := r.presets[ref]; ok {
		return fn(), nil
	}
	if _, err := os.Stat(ref); err != nil {
		return nil, fmt.Errorf("unknown preset or config file: %s", ref)
	}
	return config.Load(ref)
}

func (r *Registry) ListPresets() []string {
	return sortedKeys(r.presets)
}

func (r *Registry) GetMetric(name string) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	return sortedKeys(r.metrics)
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []dynamo.Metric {
	names := r.ListMetrics()
	out := make([]dynamo.Metric, 0, len(names))
	for _, name := range names {
		out = append(out, r.metrics[name]())
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
