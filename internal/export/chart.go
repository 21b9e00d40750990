package export

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/landau/internal/dynamo"
)

// Format selects the chart renderer.
type Format int

const (
	PNG Format = iota
	SVG
)

// ParseFormat accepts "png" and "svg".
func ParseFormat(name string) (Format, error) {
	switch name {
	case "png", "":
		return PNG, nil
	case "svg":
		return SVG, nil
	}
	return PNG, fmt.Errorf("unknown chart format: %s", name)
}

// Columns are the diagnostics that can be charted.
var Columns = map[string]func(d dynamo.Diagnostics) float64{
	"dissonance": func(d dynamo.Diagnostics) float64 { return d.Dissonance },
	"coherence":  func(d dynamo.Diagnostics) float64 { return d.Coherence },
	"amp_mean":   func(d dynamo.Diagnostics) float64 { return d.Amplitude.Mean },
	"amp_max":    func(d dynamo.Diagnostics) float64 { return d.Amplitude.Max },
	"amp_min":    func(d dynamo.Diagnostics) float64 { return d.Amplitude.Min },
}

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
	chart.ColorBlack,
}

// Chart draws the named diagnostics columns against simulation time.
func Chart(w io.Writer, format Format, title string, series []dynamo.Diagnostics, columns ...string) error {
	if len(series) < 2 {
		return fmt.Errorf("chart needs at least 2 samples, got %d", len(series))
	}
	if len(columns) == 0 {
		columns = []string{"dissonance"}
	}

	xs := make([]float64, len(series))
	for i, d := range series {
		xs[i] = d.Time
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	var lines []chart.Series
	for i, name := range columns {
		extract, ok := Columns[name]
		if !ok {
			return fmt.Errorf("unknown chart column: %s", name)
		}
		ys := make([]float64, len(series))
		for k, d := range series {
			ys[k] = extract(d)
			lo, hi = math.Min(lo, ys[k]), math.Max(hi, ys[k])
		}
		lines = append(lines, chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 2.0},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  960,
		Height: 400,
		XAxis: chart.XAxis{
			Name:  "time",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: 10.0},
		},
		Series: lines,
	}
	// A flat line has a zero-width range, which the renderer rejects.
	if hi-lo < 1e-12 {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 0.5, Max: hi + 0.5}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	provider := chart.PNG
	if format == SVG {
		provider = chart.SVG
	}
	return graph.Render(provider, w)
}
