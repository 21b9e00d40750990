package metrics

import "github.com/san-kum/landau/internal/dynamo"

// History is an Observer that keeps the most recent diagnostics. A zero
// or negative limit keeps everything.
type History struct {
	limit int
	items []dynamo.Diagnostics
}

func NewHistory(limit int) *History {
	return &History{limit: limit}
}

func (h *History) OnStep(d dynamo.Diagnostics) {
	h.items = append(h.items, d)
	if h.limit > 0 && len(h.items) > h.limit {
		h.items = h.items[len(h.items)-h.limit:]
	}
}

func (h *History) Items() []dynamo.Diagnostics { return h.items }

func (h *History) Len() int { return len(h.items) }

// Dissonance returns the recorded dissonance values, oldest first.
func (h *History) Dissonance() []float64 {
	out := make([]float64, len(h.items))
	for i, d := range h.items {
		out[i] = d.Dissonance
	}
	return out
}

// Coherence returns the recorded coherence values, oldest first.
func (h *History) Coherence() []float64 {
	out := make([]float64, len(h.items))
	for i, d := range h.items {
		out[i] = d.Coherence
	}
	return out
}

// MeanAmplitude returns the recorded mean amplitudes, oldest first.
func (h *History) MeanAmplitude() []float64 {
	out := make([]float64, len(h.items))
	for i, d := range h.items {
		out[i] = d.Amplitude.Mean
	}
	return out
}

func (h *History) Reset() { h.items = h.items[:0] }
