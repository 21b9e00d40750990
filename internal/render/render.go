// Package render maps lattice fields to colors and images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/landau/internal/lattice"
)

// Mode selects what a pixel encodes.
type Mode int

const (
	// ModeCombined uses hue for phase and lightness for amplitude.
	ModeCombined Mode = iota
	// ModePhase shows phase only at full saturation.
	ModePhase
	// ModeAmplitude runs a log-scaled amplitude through a colormap.
	ModeAmplitude
)

var modeNames = []string{"combined", "phase", "amplitude"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(name string) (Mode, error) {
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown visualization mode: %s", name)
}

func ModeNames() []string { return append([]string(nil), modeNames...) }

// Next cycles through the modes.
func (m Mode) Next() Mode { return (m + 1) % Mode(len(modeNames)) }

// floorAmplitude is the amplitude below which ModeAmplitude paints grey.
const floorAmplitude = 0.01

var floorColor = rgb(50, 50, 50)

// Hue maps a phase in [-π, π] to degrees in [0, 360].
func Hue(phase float64) float64 {
	return (phase/(2*math.Pi) + 0.5) * 360
}

// Color returns the display color of a single complex value.
func Color(re, im float64, mode Mode, cmap Colormap) colorful.Color {
	amp := math.Hypot(re, im)
	phase := math.Atan2(im, re)

	switch mode {
	case ModePhase:
		return colorful.Hsl(Hue(phase), 1, 0.5)
	case ModeAmplitude:
		if amp < floorAmplitude {
			return floorColor
		}
		return cmap(math.Min(math.Log1p(3*amp)/math.Log1p(3), 1))
	default:
		return colorful.Hsl(Hue(phase), 0.8, math.Min(amp*50, 80)/100)
	}
}

// Pixel is Color converted to an opaque RGBA value.
func Pixel(re, im float64, mode Mode, cmap Colormap) color.RGBA {
	r, g, b := Color(re, im, mode, cmap).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Image renders f with scale×scale pixels per cell. Row i of the lattice
// is drawn at y = i*scale.
func Image(f *lattice.Field, mode Mode, colormap string, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	cmap := Lookup(colormap)
	img := image.NewRGBA(image.Rect(0, 0, f.N*scale, f.N*scale))
	for i := 0; i < f.N; i++ {
		for j := 0; j < f.N; j++ {
			re, im := f.At(i, j)
			px := Pixel(re, im, mode, cmap)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetRGBA(j*scale+dx, i*scale+dy, px)
				}
			}
		}
	}
	return img
}
