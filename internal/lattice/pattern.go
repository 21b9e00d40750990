package lattice

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Pattern selects how the initial field is drawn.
type Pattern string

const (
	// PatternUniform draws every component i.i.d. from [-0.15, 0.15).
	PatternUniform Pattern = "uniform"
	// PatternNoise samples seamless OpenSimplex noise on a torus, scaled to
	// the same range as PatternUniform.
	PatternNoise Pattern = "noise"
	// PatternZero leaves the field at the origin.
	PatternZero Pattern = "zero"
)

// noiseScale sets the feature size of PatternNoise relative to the lattice.
const noiseScale = 1.5

func Patterns() []Pattern {
	return []Pattern{PatternUniform, PatternNoise, PatternZero}
}

func ParsePattern(name string) (Pattern, error) {
	switch p := Pattern(name); p {
	case PatternUniform, PatternNoise, PatternZero:
		return p, nil
	case "":
		return PatternUniform, nil
	}
	return "", fmt.Errorf("unknown initial pattern: %s", name)
}

func (p Pattern) fill(f *Field, rng Source) error {
	switch p {
	case PatternUniform, "":
		for k := range f.Z {
			f.Z[k] = InitRange * (rng.Float64() - 0.5)
		}
	case PatternNoise:
		re := opensimplex.New(rng.Int63())
		im := opensimplex.New(rng.Int63())
		for i := 0; i < f.N; i++ {
			v := 2 * math.Pi * float64(i) / float64(f.N)
			for j := 0; j < f.N; j++ {
				u := 2 * math.Pi * float64(j) / float64(f.N)
				nx, ny := noiseScale*math.Cos(u), noiseScale*math.Sin(u)
				nz, nw := noiseScale*math.Cos(v), noiseScale*math.Sin(v)
				f.Set(i, j,
					InitRange/2*clampUnit(re.Eval4(nx, ny, nz, nw)),
					InitRange/2*clampUnit(im.Eval4(nx, ny, nz, nw)))
			}
		}
	case PatternZero:
	default:
		return fmt.Errorf("unknown initial pattern: %s", string(p))
	}
	return nil
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
