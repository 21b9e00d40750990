package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
)

const (
	DefaultSize  = 100
	DefaultSteps = 1000
	DefaultSeed  = 1
)

type Config struct {
	Size          int          `yaml:"size"`
	Seed          int64        `yaml:"seed"`
	Steps         int          `yaml:"steps"`
	Pattern       string       `yaml:"pattern"`
	Lambda        float64      `yaml:"lambda"`
	Omega         float64      `yaml:"omega"`
	Coupling      [3]float64   `yaml:"coupling"`
	SmallWorld    float64      `yaml:"small_world"`
	Dt            float64      `yaml:"dt"`
	Scheme        string       `yaml:"scheme"`
	Mode          string       `yaml:"mode"`
	Normalization string       `yaml:"normalization"`
	Beta          float64      `yaml:"beta"`
	DN            DNConfig     `yaml:"dn"`
	Attack        AttackConfig `yaml:"attack"`
	View          ViewConfig   `yaml:"view"`
}

type DNConfig struct {
	A                  float64 `yaml:"a"`
	B                  float64 `yaml:"b"`
	C                  float64 `yaml:"c"`
	D                  float64 `yaml:"d"`
	NormScale          float64 `yaml:"norm_scale"`
	DisableDenominator bool    `yaml:"disable_denominator"`
}

type AttackConfig struct {
	Active     bool    `yaml:"active"`
	Gain       float64 `yaml:"gain"`
	Input      float64 `yaml:"input"`
	NoiseProb  float64 `yaml:"noise_prob"`
	NoiseAmp   float64 `yaml:"noise_amp"`
	HalfWidth  float64 `yaml:"half_width"`
	Noise      string  `yaml:"noise"`
	Persistent bool    `yaml:"persistent"`
	Decay      float64 `yaml:"decay"`
	Threshold  float64 `yaml:"threshold"`
}

type ViewConfig struct {
	Mode     string `yaml:"mode"`
	Colormap string `yaml:"colormap"`
	Theme    string `yaml:"theme"`
}

func DefaultConfig() *Config {
	return FromParams(dynamo.DefaultParams())
}

// FromParams builds a config around p with default run and view settings.
func FromParams(p dynamo.Params) *Config {
	return &Config{
		Size:          p.Size,
		Seed:          DefaultSeed,
		Steps:         DefaultSteps,
		Pattern:       string(lattice.PatternUniform),
		Lambda:        p.Lambda,
		Omega:         p.Omega,
		Coupling:      p.Coupling,
		SmallWorld:    p.SmallWorld,
		Dt:            p.Dt,
		Scheme:        p.Scheme.String(),
		Mode:          p.Mode.String(),
		Normalization: p.Normalization.String(),
		Beta:          p.Beta,
		DN: DNConfig{
			A:                  p.DN.A,
			B:                  p.DN.B,
			C:                  p.DN.C,
			D:                  p.DN.D,
			NormScale:          p.DN.NormScale,
			DisableDenominator: p.DN.DisableDenominator,
		},
		Attack: AttackConfig{
			Active:     p.Attack.Active,
			Gain:       p.Attack.Gain,
			Input:      p.Attack.Input,
			NoiseProb:  p.Attack.NoiseProb,
			NoiseAmp:   p.Attack.NoiseAmp,
			HalfWidth:  p.Attack.HalfWidth,
			Noise:      p.Attack.Noise.String(),
			Persistent: p.Attack.Persistent,
			Decay:      p.Attack.Decay,
			Threshold:  p.Attack.Threshold,
		},
		View: ViewConfig{
			Mode:     "combined",
			Colormap: "viridis",
			Theme:    "default",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the config into a validated step configuration.
func (c *Config) Params() (dynamo.Params, error) {
	scheme, err := dynamo.ParseScheme(c.Scheme)
	if err != nil {
		return dynamo.Params{}, err
	}
	mode, err := dynamo.ParseCouplingMode(c.Mode)
	if err != nil {
		return dynamo.Params{}, err
	}
	norm, err := dynamo.ParseNormalization(c.Normalization)
	if err != nil {
		return dynamo.Params{}, err
	}
	noise, err := dynamo.ParseNoisePolicy(c.Attack.Noise)
	if err != nil {
		return dynamo.Params{}, err
	}

	p := dynamo.Params{
		Size:          c.Size,
		Lambda:        c.Lambda,
		Omega:         c.Omega,
		Coupling:      c.Coupling,
		SmallWorld:    c.SmallWorld,
		Dt:            c.Dt,
		Scheme:        scheme,
		Mode:          mode,
		Normalization: norm,
		Beta:          c.Beta,
		DN: dynamo.DNParams{
			A:                  c.DN.A,
			B:                  c.DN.B,
			C:                  c.DN.C,
			D:                  c.DN.D,
			NormScale:          c.DN.NormScale,
			DisableDenominator: c.DN.DisableDenominator,
		},
		Attack: dynamo.AttackParams{
			Active:     c.Attack.Active,
			Gain:       c.Attack.Gain,
			Input:      c.Attack.Input,
			NoiseProb:  c.Attack.NoiseProb,
			NoiseAmp:   c.Attack.NoiseAmp,
			HalfWidth:  c.Attack.HalfWidth,
			Noise:      noise,
			Persistent: c.Attack.Persistent,
			Decay:      c.Attack.Decay,
			Threshold:  c.Attack.Threshold,
		},
	}
	if err := p.Validate(); err != nil {
		return dynamo.Params{}, err
	}
	return p, nil
}

// InitPattern returns the configured initial-field pattern.
func (c *Config) InitPattern() (lattice.Pattern, error) {
	return lattice.ParsePattern(c.Pattern)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
