package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
)

// PhasePortrait2D holds points in the complex plane.
type PhasePortrait2D struct {
	Points []struct{ X, Y float64 }
}

// PhaseScatter places every cell of f at (re, im).
func PhaseScatter(f *lattice.Field) *PhasePortrait2D {
	portrait := &PhasePortrait2D{Points: make([]struct{ X, Y float64 }, f.Cells())}
	for c := range portrait.Points {
		portrait.Points[c].X = f.Z[2*c]
		portrait.Points[c].Y = f.Z[2*c+1]
	}
	return portrait
}

// CellTrajectory integrates the whole system and records the orbit of
// cell k in the complex plane.
func CellTrajectory(
	dyn dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	u dynamo.Control,
	k int,
	dt float64,
	steps int,
) *PhasePortrait2D {
	if 2*k+1 >= len(x0) {
		return nil
	}

	portrait := &PhasePortrait2D{
		Points: make([]struct{ X, Y float64 }, 0, steps),
	}

	x := x0.Clone()
	if u == nil {
		u = make(dynamo.Control, dyn.ControlDim())
	}
	t := 0.0

	for s := 0; s < steps; s++ {
		x = integ.Step(dyn, x, u, t, dt)
		t += dt

		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{
			X: x[2*k],
			Y: x[2*k+1],
		})
	}

	return portrait
}

// PhasePortraitToASCII draws the portrait in a view centred on the
// origin with equal scale on both axes. Cells visited four or more times
// are drawn heavier.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	bound := 0.0
	for _, p := range portrait.Points {
		bound = max(bound, math.Abs(p.X), math.Abs(p.Y))
	}
	if bound == 0 {
		bound = 1
	}
	bound *= 1.1

	hits := make([]int, width*height)
	for _, p := range portrait.Points {
		col := int((p.X + bound) / (2 * bound) * float64(width-1))
		row := height - 1 - int((p.Y+bound)/(2*bound)*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			hits[row*width+col]++
		}
	}

	midCol, midRow := (width-1)/2, (height-1)/2
	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			switch h := hits[row*width+col]; {
			case h >= 4:
				sb.WriteRune('●')
			case h > 0:
				sb.WriteRune('•')
			case row == midRow && col == midCol:
				sb.WriteRune('┼')
			case col == midCol:
				sb.WriteRune('│')
			case row == midRow:
				sb.WriteRune('─')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
