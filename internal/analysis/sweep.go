package analysis

import (
	"context"
	"math"
	"math/rand"
	"strings"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/sim"
)

// SweepPoint summarizes the settled lattice at one parameter value.
type SweepPoint struct {
	Param      float64
	Dissonance float64
	Coherence  float64
	// Values are the distinct mean amplitudes seen while recording,
	// quantized to 1e-3.
	Values []float64
}

// SweepConfig describes a one-parameter sweep. Every point starts from
// the same seed so only the parameter differs.
type SweepConfig struct {
	Param     string
	Min, Max  float64
	Points    int
	Transient int
	Record    int
	Seed      int64
}

// Sweep runs one simulation per parameter value and records the settled
// diagnostics. This is the lattice analogue of a bifurcation diagram.
func Sweep(ctx context.Context, base dynamo.Params, cfg SweepConfig) ([]SweepPoint, error) {
	points := cfg.Points
	if points <= 1 {
		points = 2
	}
	step := (cfg.Max - cfg.Min) / float64(points-1)

	results := make([]SweepPoint, 0, points)
	for i := 0; i < points; i++ {
		param := cfg.Min + float64(i)*step
		p := base
		if err := p.SetParam(cfg.Param, param); err != nil {
			return nil, err
		}

		s, err := sim.New(p, rand.New(rand.NewSource(cfg.Seed)))
		if err != nil {
			return nil, err
		}
		if err := s.Run(ctx, cfg.Transient, nil); err != nil {
			return nil, err
		}

		point := SweepPoint{Param: param}
		seen := make(map[int]bool)
		recorded := 0
		err = s.Run(ctx, cfg.Record, func(d dynamo.Diagnostics) bool {
			point.Dissonance += d.Dissonance
			point.Coherence += d.Coherence
			recorded++
			key := int(math.Round(d.Amplitude.Mean * 1000))
			if !seen[key] {
				seen[key] = true
				point.Values = append(point.Values, d.Amplitude.Mean)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if recorded > 0 {
			point.Dissonance /= float64(recorded)
			point.Coherence /= float64(recorded)
		}
		results = append(results, point)
	}
	return results, nil
}

// SweepToASCII plots the recorded amplitude values of each point.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.Values {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
			} else {
				minVal = math.Min(minVal, v)
				maxVal = math.Max(maxVal, v)
			}
		}
	}
	if !foundFirst {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
