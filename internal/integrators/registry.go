package integrators

import (
	"fmt"

	"github.com/san-kum/landau/internal/dynamo"
)

// New returns a fresh integrator for the given scheme.
func New(s dynamo.Scheme) (dynamo.Integrator, error) {
	switch s {
	case dynamo.SchemeEuler:
		return NewEuler(), nil
	case dynamo.SchemeRK4:
		return NewRK4(), nil
	}
	return nil, fmt.Errorf("%w: %d", dynamo.ErrUnknownScheme, s)
}
