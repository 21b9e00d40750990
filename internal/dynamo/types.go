package dynamo

import (
	"fmt"
	"math"
	"sort"
)

// State is a flat lattice state. Complex cells are stored interleaved:
// State[2k] is the real part and State[2k+1] the imaginary part of cell k.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Control carries one external input value per cell. It is added to the
// real part of the derivative.
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// InPlaceSystem is a System that can write its derivative into a caller
// buffer. Lattice states hold 2N² values, so integrators prefer this over
// allocating a fresh derivative at every stage.
type InPlaceSystem interface {
	System
	DeriveInto(x State, u Control, t float64, out State)
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type Metric interface {
	Name() string
	Observe(d Diagnostics)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(d Diagnostics)
}

// Configurable exposes tunable scalars by name. *Params implements it.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// AmplitudeStats summarises the amplitude field after near-zero cells are
// filtered out.
type AmplitudeStats struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	Count     int     `json:"count"`
	Histogram []int   `json:"histogram"`
}

// Diagnostics is the read-only summary produced after every step.
type Diagnostics struct {
	Step       int            `json:"step"`
	Time       float64        `json:"time"`
	Dissonance float64        `json:"dissonance"`
	Coherence  float64        `json:"coherence"`
	Amplitude  AmplitudeStats `json:"amplitude"`
}

// DNParams configures the divisive-normalization coupling law:
// ratio = (A*act + B) / (C*norm + D).
type DNParams struct {
	A, B, C, D float64
	// NormScale multiplies every kernel strength when pooling the
	// normalization field.
	NormScale float64
	// DisableDenominator replaces the denominator with 1.
	DisableDenominator bool
}

// AttackParams describes the localized disturbance region.
type AttackParams struct {
	Active bool
	// Gain multiplies the base excitability inside the region.
	Gain float64
	// Input is the constant external forcing inside the region.
	Input float64
	// NoiseProb and NoiseAmp control the stochastic extra input: with
	// probability NoiseProb a uniform value in [0, NoiseAmp) is added.
	NoiseProb float64
	NoiseAmp  float64
	// HalfWidth is the half side of the centered square, as a fraction of N.
	HalfWidth float64
	Noise     NoisePolicy

	// Persistent enables the decaying excitability residual.
	Persistent bool
	Decay      float64
	Threshold  float64
}

// Params is the complete per-step configuration. It is copied into the
// simulator by Configure and never mutated during a step.
type Params struct {
	Size          int
	Lambda        float64
	Omega         float64
	Coupling      [3]float64
	SmallWorld    float64
	Dt            float64
	Scheme        Scheme
	Mode          CouplingMode
	Normalization Normalization
	DN            DNParams
	Beta          float64
	Attack        AttackParams
}

func DefaultParams() Params {
	return Params{
		Size:          100,
		Lambda:        0.1,
		Omega:         0.15,
		Coupling:      [3]float64{0.2, 0.1, 0.05},
		SmallWorld:    0,
		Dt:            0.2,
		Scheme:        SchemeRK4,
		Mode:          ModeLinear,
		Normalization: NormGlobal,
		DN: DNParams{
			A:         1.0,
			B:         0.0,
			C:         1.0,
			D:         40.0,
			NormScale: 1.5,
		},
		Beta: 0,
		Attack: AttackParams{
			Gain:      5,
			Input:     1.0,
			NoiseProb: 0.1,
			NoiseAmp:  0.5,
			HalfWidth: 0.1,
			Noise:     NoisePerStep,
			Decay:     0.999,
			Threshold: 0.01,
		},
	}
}

// Validate rejects grid sizes below one, non-finite scalars and a
// persistent residual whose decay factor would not shrink it. Other
// physically odd but finite values are accepted.
func (p Params) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidGridSize, p.Size)
	}
	for name, v := range p.GetParams() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrParameterBounds, name, v)
		}
	}
	for _, v := range []float64{p.Attack.NoiseProb, p.Attack.NoiseAmp, p.Attack.HalfWidth, p.Attack.Decay, p.Attack.Threshold, p.DN.NormScale} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: attack/dn setting %v", ErrParameterBounds, v)
		}
	}
	if p.Attack.Persistent && (p.Attack.Decay <= 0 || p.Attack.Decay >= 1) {
		return fmt.Errorf("%w: residual decay %v outside (0, 1)", ErrParameterBounds, p.Attack.Decay)
	}
	if _, ok := schemeNames[p.Scheme]; !ok {
		return fmt.Errorf("%w: scheme %d", ErrUnknownScheme, p.Scheme)
	}
	if _, ok := modeNames[p.Mode]; !ok {
		return fmt.Errorf("%w: mode %d", ErrUnknownMode, p.Mode)
	}
	return nil
}

// GetParams exposes the tunable scalars by name.
func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"lambda":       p.Lambda,
		"omega":        p.Omega,
		"k1":           p.Coupling[0],
		"k2":           p.Coupling[1],
		"k3":           p.Coupling[2],
		"small_world":  p.SmallWorld,
		"dt":           p.Dt,
		"beta":         p.Beta,
		"dn_a":         p.DN.A,
		"dn_b":         p.DN.B,
		"dn_c":         p.DN.C,
		"dn_d":         p.DN.D,
		"attack_gain":  p.Attack.Gain,
		"attack_input": p.Attack.Input,
	}
}

func (p *Params) SetParam(name string, value float64) error {
	switch name {
	case "lambda":
		p.Lambda = value
	case "omega":
		p.Omega = value
	case "k1":
		p.Coupling[0] = value
	case "k2":
		p.Coupling[1] = value
	case "k3":
		p.Coupling[2] = value
	case "small_world":
		p.SmallWorld = value
	case "dt":
		p.Dt = value
	case "beta":
		p.Beta = value
	case "dn_a":
		p.DN.A = value
	case "dn_b":
		p.DN.B = value
	case "dn_c":
		p.DN.C = value
	case "dn_d":
		p.DN.D = value
	case "attack_gain":
		p.Attack.Gain = value
	case "attack_input":
		p.Attack.Input = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}

var _ Configurable = (*Params)(nil)

// ParamNames returns the tunable parameter names in stable order.
func ParamNames() []string {
	names := make([]string, 0, 14)
	for k := range DefaultParams().GetParams() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
