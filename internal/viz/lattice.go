package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/landau/internal/lattice"
	"github.com/san-kum/landau/internal/render"
)

const halfBlock = "▀"

// LatticeView draws f with one half-block per pair of vertically stacked
// samples: the foreground carries the upper sample, the background the
// lower one. Lattices larger than cols x 2*rows are subsampled.
func LatticeView(f *lattice.Field, mode render.Mode, cmap render.Colormap, cols, rows int) string {
	if f == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	w := min(f.N, cols)
	h := min(f.N, 2*rows)

	sample := func(x, y int) lipgloss.Color {
		i := y * f.N / h
		j := x * f.N / w
		re, im := f.At(i, j)
		return lipgloss.Color(render.Color(re, im, mode, cmap).Clamped().Hex())
	}

	var b strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			style := lipgloss.NewStyle().Foreground(sample(x, y))
			if y+1 < h {
				style = style.Background(sample(x, y+1))
			}
			b.WriteString(style.Render(halfBlock))
		}
	}
	return b.String()
}
