package render

import (
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultColormap is used for unknown names.
const DefaultColormap = "viridis"

// Colormap maps t in [0, 1] to a color.
type Colormap func(t float64) colorful.Color

func rgb(r, g, b float64) colorful.Color {
	return colorful.Color{R: r / 255, G: g / 255, B: b / 255}
}

// piecewise blends linearly between evenly spaced anchors.
func piecewise(anchors ...colorful.Color) Colormap {
	segments := float64(len(anchors) - 1)
	return func(t float64) colorful.Color {
		t = clamp01(t)
		if t >= 1 {
			return anchors[len(anchors)-1]
		}
		pos := t * segments
		k := int(pos)
		return anchors[k].BlendRgb(anchors[k+1], pos-float64(k))
	}
}

var colormaps = map[string]Colormap{
	"viridis": piecewise(
		rgb(68, 1, 84), rgb(65, 104, 171), rgb(33, 145, 140), rgb(94, 170, 65), rgb(253, 231, 37)),
	"plasma": piecewise(
		rgb(13, 8, 135), rgb(84, 39, 159), rgb(156, 46, 153), rgb(236, 112, 50), rgb(253, 231, 37)),
	"magma": piecewise(
		rgb(0, 0, 4), rgb(88, 24, 108), rgb(196, 30, 114), rgb(249, 99, 99), rgb(252, 253, 191)),
	"inferno": piecewise(
		rgb(0, 0, 4), rgb(73, 13, 89), rgb(183, 55, 82), rgb(252, 137, 37), rgb(252, 254, 164)),
	"coolwarm": piecewise(
		rgb(59, 76, 192), rgb(220, 220, 220), rgb(180, 4, 38)),
	"turbo":   turbo,
	"heatmap": heatmap,
	"classic": classic,
}

func turbo(t float64) colorful.Color {
	t = clamp01(t)
	return colorful.Color{
		R: math.Sin(t*math.Pi)*0.5 + 0.5,
		G: math.Sin(t*math.Pi+2*math.Pi/3)*0.5 + 0.5,
		B: math.Sin(t*math.Pi+4*math.Pi/3)*0.5 + 0.5,
	}
}

// heatmap runs black, red, yellow, white.
func heatmap(t float64) colorful.Color {
	t = clamp01(t)
	switch {
	case t < 0.33:
		return colorful.Color{R: t * 3}
	case t < 0.66:
		return colorful.Color{R: 1, G: (t - 0.33) * 3}
	default:
		return colorful.Color{R: 1, G: 1, B: math.Min(1, (t-0.66)*3)}
	}
}

// classic is the blue-to-red amplitude ramp of the amplitude view.
func classic(t float64) colorful.Color {
	t = clamp01(t)
	b := 1 - t
	if t < 0.5 {
		b = 0.5 + t
	}
	return colorful.Color{R: math.Pow(t, 0.7), G: 0.3 * (1 - t), B: b}
}

// Lookup returns the named colormap, falling back to viridis.
func Lookup(name string) Colormap {
	if c, ok := colormaps[name]; ok {
		return c
	}
	return colormaps[DefaultColormap]
}

func Known(name string) bool {
	_, ok := colormaps[name]
	return ok
}

func ColormapNames() []string {
	names := make([]string, 0, len(colormaps))
	for n := range colormaps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LogScaleNormalize maps v from [min, max] to [0, 1], switching to
// log10(1+x) spacing when the range spans more than a decade.
func LogScaleNormalize(v, min, max float64) float64 {
	if min >= max {
		return 0.5
	}
	if max/math.Max(1e-4, min) > 10 {
		lo, hi := math.Log10(1+min), math.Log10(1+max)
		return (math.Log10(1+v) - lo) / (hi - lo)
	}
	return (v - min) / (max - min)
}

// EnhanceContrast pushes normalized values away from 0.5. amount 1 is the
// identity.
func EnhanceContrast(v, amount float64) float64 {
	c := v - 0.5
	sign := 1.0
	if c < 0 {
		sign = -1
	}
	return clamp01(sign*math.Pow(math.Abs(c), 1/amount) + 0.5)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
