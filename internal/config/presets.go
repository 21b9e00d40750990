package config

import (
	"sort"

	"github.com/san-kum/landau/internal/dynamo"
)

// Presets are the named lattice variants.
var Presets = map[string]func() *Config{
	// Linear kernel coupling, globally normalized, slow rotation.
	"dn": func() *Config {
		return DefaultConfig()
	},
	// Divisive-normalization coupling law.
	"dn-coupling": func() *Config {
		c := DefaultConfig()
		c.Mode = dynamo.ModeDN.String()
		return c
	},
	// Unnormalized kernels with Gaussian gain control on every increment.
	"dn-old": func() *Config {
		c := DefaultConfig()
		c.Dt = 0.5
		c.Omega = 0.6
		c.Normalization = dynamo.NormNone.String()
		c.Beta = 1
		return c
	},
	"flexible": func() *Config {
		c := DefaultConfig()
		c.Dt = 0.1
		c.Omega = 0.6
		c.Normalization = dynamo.NormNone.String()
		return c
	},
	// Nearest-neighbour diffusion integrated with Euler.
	"simple": func() *Config {
		c := DefaultConfig()
		c.Size = 50
		c.Dt = 0.05
		c.Omega = 0.6
		c.Scheme = dynamo.SchemeEuler.String()
		c.Mode = dynamo.ModeDiffusive.String()
		c.Coupling = [3]float64{0.2, 0, 0}
		return c
	},
	// Wider attack region leaving a decaying excitability residual.
	"persistent": func() *Config {
		c := DefaultConfig()
		c.Attack.Persistent = true
		c.Attack.HalfWidth = 0.2
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
