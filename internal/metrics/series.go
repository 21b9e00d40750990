package metrics

import "github.com/san-kum/landau/internal/dynamo"

// Mean averages one diagnostic over every observed step.
type Mean struct {
	name    string
	extract func(dynamo.Diagnostics) float64
	sum     float64
	samples int
}

func NewMeanDissonance() *Mean {
	return &Mean{
		name:    "mean_dissonance",
		extract: func(d dynamo.Diagnostics) float64 { return d.Dissonance },
	}
}

func NewMeanAmplitude() *Mean {
	return &Mean{
		name:    "mean_amplitude",
		extract: func(d dynamo.Diagnostics) float64 { return d.Amplitude.Mean },
	}
}

func NewMeanCoherence() *Mean {
	return &Mean{
		name:    "mean_coherence",
		extract: func(d dynamo.Diagnostics) float64 { return d.Coherence },
	}
}

func (m *Mean) Name() string {
	return m.name
}

func (m *Mean) Observe(d dynamo.Diagnostics) {
	m.sum += m.extract(d)
	m.samples++
}

func (m *Mean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Mean) Reset() {
	m.sum = 0
	m.samples = 0
}

// Final keeps the last observed dissonance.
type Final struct {
	value float64
}

func NewFinalDissonance() *Final { return &Final{} }

func (f *Final) Name() string                 { return "final_dissonance" }
func (f *Final) Observe(d dynamo.Diagnostics) { f.value = d.Dissonance }
func (f *Final) Value() float64               { return f.value }
func (f *Final) Reset()                       { f.value = 0 }

// Standard returns the metric set attached to every CLI run.
func Standard() []dynamo.Metric {
	return []dynamo.Metric{
		NewMeanDissonance(),
		NewFinalDissonance(),
		NewMeanAmplitude(),
		NewMeanCoherence(),
		NewStability(10),
	}
}
