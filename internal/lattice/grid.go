package lattice

import (
	"fmt"

	"github.com/san-kum/landau/internal/dynamo"
)

// LinksPerCell is the number of small-world targets drawn for every cell.
const LinksPerCell = 2

// InitRange is the width of the symmetric interval used for the initial
// field components.
const InitRange = 0.3

type Cell struct {
	Row, Col int
}

// Links holds LinksPerCell long-range targets per cell in row-major order.
// Self-links and duplicates are permitted.
type Links [][LinksPerCell]Cell

// Source is the random stream shared by initialization and noise
// injection. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
	Int63() int64
}

// Grid owns the field and its small-world adjacency. Both are replaced
// wholesale by Initialize and Resize.
type Grid struct {
	Field *Field
	Links Links
}

// Initialize allocates an N×N field drawn from pattern and wires the
// small-world links. The field is drawn before the links so a seeded
// source reproduces both.
func Initialize(n int, rng Source, pattern Pattern) (*Grid, error) {
	f, err := NewField(n)
	if err != nil {
		return nil, err
	}
	if err := pattern.fill(f, rng); err != nil {
		return nil, err
	}
	return &Grid{Field: f, Links: NewLinks(n, rng)}, nil
}

// NewLinks draws LinksPerCell uniform targets for each of the n*n cells.
func NewLinks(n int, rng Source) Links {
	links := make(Links, n*n)
	for k := range links {
		for l := 0; l < LinksPerCell; l++ {
			links[k][l] = Cell{Row: rng.Intn(n), Col: rng.Intn(n)}
		}
	}
	return links
}

// Validate checks that the links belong to an n×n lattice.
func (l Links) Validate(n int) error {
	if len(l) != n*n {
		return fmt.Errorf("%w: %d link sets for %d cells", dynamo.ErrDimensionMismatch, len(l), n*n)
	}
	for _, set := range l {
		for _, c := range set {
			if c.Row < 0 || c.Row >= n || c.Col < 0 || c.Col >= n {
				return fmt.Errorf("%w: link target (%d,%d) outside %dx%d", dynamo.ErrDimensionMismatch, c.Row, c.Col, n, n)
			}
		}
	}
	return nil
}
