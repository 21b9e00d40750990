package dynamo

import (
	"fmt"
	"sort"
)

// Scheme selects the time integrator.
type Scheme int

const (
	SchemeEuler Scheme = iota
	SchemeRK4
)

// CouplingMode selects the coupling law.
type CouplingMode int

const (
	// ModeLinear sums complex neighbor values through the distance kernels.
	ModeLinear CouplingMode = iota
	// ModeDN pools amplitudes and applies divisive normalization.
	ModeDN
	// ModeDiffusive uses the 5-point discrete Laplacian scaled by the first
	// coupling strength.
	ModeDiffusive
)

// Normalization selects how ModeLinear combines kernel contributions.
type Normalization int

const (
	NormGlobal Normalization = iota
	NormNone
)

// NoisePolicy decides when the stochastic attack input is sampled.
type NoisePolicy int

const (
	// NoisePerStep samples once per full step and holds the value across
	// integrator stages.
	NoisePerStep NoisePolicy = iota
	// NoisePerStage resamples at every derivative evaluation.
	NoisePerStage
)

var (
	schemeNames = map[Scheme]string{
		SchemeEuler: "euler",
		SchemeRK4:   "rk4",
	}
	modeNames = map[CouplingMode]string{
		ModeLinear:    "linear",
		ModeDN:        "dn",
		ModeDiffusive: "diffusive",
	}
	normNames = map[Normalization]string{
		NormGlobal: "global",
		NormNone:   "none",
	}
	noiseNames = map[NoisePolicy]string{
		NoisePerStep:  "per-step",
		NoisePerStage: "per-stage",
	}
)

func (s Scheme) String() string        { return nameOf(schemeNames, s) }
func (m CouplingMode) String() string  { return nameOf(modeNames, m) }
func (n Normalization) String() string { return nameOf(normNames, n) }
func (n NoisePolicy) String() string   { return nameOf(noiseNames, n) }

func ParseScheme(name string) (Scheme, error) {
	return parse(schemeNames, name, ErrUnknownScheme)
}

func ParseCouplingMode(name string) (CouplingMode, error) {
	return parse(modeNames, name, ErrUnknownMode)
}

func ParseNormalization(name string) (Normalization, error) {
	return parse(normNames, name, ErrUnknownMode)
}

func ParseNoisePolicy(name string) (NoisePolicy, error) {
	return parse(noiseNames, name, ErrUnknownMode)
}

func SchemeNames() []string       { return sortedNames(schemeNames) }
func CouplingModeNames() []string { return sortedNames(modeNames) }

func nameOf[K comparable](names map[K]string, k K) string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%v)", k)
}

func parse[K comparable](names map[K]string, name string, sentinel error) (K, error) {
	for k, n := range names {
		if n == name {
			return k, nil
		}
	}
	var zero K
	return zero, fmt.Errorf("%w: %q", sentinel, name)
}

func sortedNames[K comparable](names map[K]string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
