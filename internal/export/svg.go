package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/landau/internal/viz"
)

const svgHeader = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// brailleDots maps each dot of a braille cell to its (dx, dy) position.
var brailleDots = []struct {
	bit    rune
	dx, dy int
}{
	{0x01, 0, 0}, {0x02, 0, 1}, {0x04, 0, 2}, {0x40, 0, 3},
	{0x08, 1, 0}, {0x10, 1, 1}, {0x20, 1, 2}, {0x80, 1, 3},
}

// CanvasToSVG renders every lit braille dot of canvas as a circle.
func CanvasToSVG(canvas *viz.Canvas, scale float64, fill string) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.PixelSize()
	width, height := float64(w)*scale, float64(h)*scale
	radius := scale * 0.4

	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, width, height, width, height)
	fmt.Fprintf(&sb, "<g fill=%q>\n", fill)

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := canvas.Grid[row][col] - 0x2800
			if pattern <= 0 {
				continue
			}
			for _, d := range brailleDots {
				if pattern&d.bit == 0 {
					continue
				}
				cx := (float64(col*2+d.dx) + 0.5) * scale
				cy := (float64(row*4+d.dy) + 0.5) * scale
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, radius)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoryToSVG draws an orbit in the complex plane as a polyline. The
// view is square and centred on the origin so circular orbits stay round.
func TrajectoryToSVG(points []struct{ X, Y float64 }, size int, strokeColor string) string {
	if len(points) < 2 || size <= 0 {
		return ""
	}

	bound := 0.0
	for _, p := range points {
		bound = max(bound, abs(p.X), abs(p.Y))
	}
	if bound == 0 {
		bound = 1
	}
	bound *= 1.1

	s := float64(size)
	var sb strings.Builder
	fmt.Fprintf(&sb, svgHeader, s, s, s, s)
	fmt.Fprintf(&sb, "<line x1=\"0\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"#333\"/>\n", s/2, s, s/2)
	fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"0\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"#333\"/>\n", s/2, s/2, s)
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=%q stroke-width=\"1.5\" d=\"", strokeColor)

	for i, p := range points {
		x := (p.X/bound + 1) / 2 * s
		y := (1 - p.Y/bound) / 2 * s
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
