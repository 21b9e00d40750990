package sim

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/san-kum/landau/internal/compute"
	"github.com/san-kum/landau/internal/coupling"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/integrators"
	"github.com/san-kum/landau/internal/lattice"
	"github.com/san-kum/landau/internal/metrics"
	"github.com/san-kum/landau/internal/perturb"
	"github.com/san-kum/landau/internal/physics"
)

// Simulator owns one lattice run. Steps are synchronous; Configure, Reset
// and Resize replace state between steps and must not be called
// concurrently with Step. A step runs on the calling goroutine unless a
// CPU compute backend is selected, in which case only the coupling rows
// are split across workers. Each worker writes its own rows, so results
// do not depend on the backend.
type Simulator struct {
	params  dynamo.Params
	rng     lattice.Source
	pattern lattice.Pattern
	logger  *log.Logger
	backend compute.Backend

	grid       *lattice.Grid
	perturb    *perturb.Model
	system     *physics.Landau
	integrator dynamo.Integrator
	engine     *coupling.Engine
	control    dynamo.Control
	localNorm  []float64

	step int
	t    float64
	last dynamo.Diagnostics

	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

type Option func(*Simulator)

func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBackend selects the row executor for the coupling computation
// instead of the process-wide default.
func WithBackend(b compute.Backend) Option {
	return func(s *Simulator) { s.backend = b }
}

// WithPattern selects the initial-field pattern used by New, Reset and
// Resize.
func WithPattern(p lattice.Pattern) Option {
	return func(s *Simulator) { s.pattern = p }
}

// New validates p and builds a freshly initialized lattice. All randomness
// is drawn from rng.
func New(p dynamo.Params, rng lattice.Source, opts ...Option) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		params:  p,
		rng:     rng,
		pattern: lattice.PatternUniform,
		logger:  log.New(io.Discard),
		engine:  coupling.NewEngine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend != nil {
		s.engine.SetBackend(s.backend)
	}
	integ, err := integrators.New(p.Scheme)
	if err != nil {
		return nil, err
	}
	s.integrator = integ
	if err := s.initialize(p.Size); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulator) initialize(n int) error {
	g, err := lattice.Initialize(n, s.rng, s.pattern)
	if err != nil {
		return err
	}
	s.params.Size = n
	s.grid = g
	s.perturb = perturb.New(n)
	s.system = physics.NewLandau(s.params, g.Links, s.perturb, s.rng)
	if s.backend != nil {
		s.system.SetBackend(s.backend)
	}
	s.control = make(dynamo.Control, n*n)
	s.localNorm = make([]float64, n*n)
	s.step = 0
	s.t = 0
	s.last = metrics.Diagnose(g.Field, 0, 0)
	for _, m := range s.metrics {
		m.Reset()
	}
	return nil
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Configure applies a new parameter set before the next step. A size
// change re-initializes the lattice; switching the attack on kicks the
// attack region once.
func (s *Simulator) Configure(p dynamo.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	prev := s.params

	if p.Scheme != prev.Scheme {
		integ, err := integrators.New(p.Scheme)
		if err != nil {
			return err
		}
		s.integrator = integ
		s.logger.Debug("integrator changed", "scheme", p.Scheme)
	}

	s.params = p
	if p.Size != prev.Size {
		return s.Resize(p.Size)
	}
	s.system.SetParams(p)

	if p.Attack.Active && !prev.Attack.Active {
		s.perturb.Kick(s.grid.Field, p, s.rng)
		s.logger.Debug("attack started", "step", s.step, "half_width", p.Attack.HalfWidth)
	} else if !p.Attack.Active && prev.Attack.Active {
		s.logger.Debug("attack stopped", "step", s.step, "residual_cells", s.perturb.Active())
	}
	return nil
}

func (s *Simulator) Params() dynamo.Params { return s.params }

// SetAttack toggles the attack flag through Configure.
func (s *Simulator) SetAttack(active bool) error {
	p := s.params
	p.Attack.Active = active
	return s.Configure(p)
}

// Reset discards the field, links and residual and redraws them at the
// current size.
func (s *Simulator) Reset() error {
	s.logger.Debug("reset", "size", s.params.Size)
	return s.initialize(s.params.Size)
}

// Resize re-initializes the lattice at size n. Prior dynamics are not
// preserved.
func (s *Simulator) Resize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: got %d", dynamo.ErrInvalidGridSize, n)
	}
	s.logger.Debug("resize", "from", s.grid.Field.N, "to", n)
	return s.initialize(n)
}

// Field returns a copy of the current lattice.
func (s *Simulator) Field() *lattice.Field { return s.grid.Field.Clone() }

// SetField replaces the current field values. f must match the lattice
// size.
func (s *Simulator) SetField(f *lattice.Field) error {
	if f.N != s.params.Size || len(f.Z) != len(s.grid.Field.Z) {
		return fmt.Errorf("%w: field %d, lattice %d", dynamo.ErrDimensionMismatch, f.N, s.params.Size)
	}
	copy(s.grid.Field.Z, f.Z)
	s.last = metrics.Diagnose(s.grid.Field, s.step, s.t)
	return nil
}

func (s *Simulator) Links() lattice.Links            { return s.grid.Links }
func (s *Simulator) Residuals() []float64            { return s.perturb.Residuals() }
func (s *Simulator) Diagnostics() dynamo.Diagnostics { return s.last }
func (s *Simulator) StepCount() int                  { return s.step }
func (s *Simulator) Time() float64                   { return s.t }

// Step advances the lattice by one dt: the perturbation model advances,
// the forcing is sampled, the integrator runs over the whole lattice, the
// optional gain control scales the increment and diagnostics are derived.
// A diverged candidate is rejected and the field is left untouched.
func (s *Simulator) Step() (dynamo.Diagnostics, error) {
	p := s.params
	f := s.grid.Field

	s.perturb.Advance(p)
	s.system.Prepare()

	if p.Attack.Noise == dynamo.NoisePerStage {
		for k := range s.control {
			s.control[k] = 0
		}
	} else {
		s.perturb.Inputs(p, s.rng, s.control)
	}

	next := s.integrator.Step(s.system, f.Z, s.control, s.t, p.Dt)

	if p.Beta != 0 {
		s.engine.LocalNorm(f, s.localNorm)
		for c, ln := range s.localNorm {
			scale := math.Max(coupling.Epsilon, 1+p.Beta*ln)
			next[2*c] = f.Z[2*c] + (next[2*c]-f.Z[2*c])/scale
			next[2*c+1] = f.Z[2*c+1] + (next[2*c+1]-f.Z[2*c+1])/scale
		}
	}

	if !next.IsValid() {
		s.logger.Warn("step rejected", "step", s.step, "t", s.t, "dt", p.Dt, "mode", p.Mode)
		return s.last, &dynamo.SimulationError{Step: s.step, Time: s.t, Wrapped: dynamo.ErrUnstable}
	}

	copy(f.Z, next)
	s.step++
	s.t += p.Dt

	d := metrics.Diagnose(f, s.step, s.t)
	s.last = d
	for _, m := range s.metrics {
		m.Observe(d)
	}
	for _, o := range s.observers {
		o.OnStep(d)
	}
	return d, nil
}

// Run performs up to steps steps, stopping early when ctx is done or cb
// returns false. cb may be nil.
func (s *Simulator) Run(ctx context.Context, steps int, cb func(dynamo.Diagnostics) bool) error {
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		d, err := s.Step()
		if err != nil {
			return err
		}
		if cb != nil && !cb(d) {
			return nil
		}
	}
	return nil
}

// Result is the summary of a run.
type Result struct {
	Steps   int                `json:"steps"`
	Time    float64            `json:"time"`
	Final   dynamo.Diagnostics `json:"final"`
	Metrics map[string]float64 `json:"metrics"`
}

func (s *Simulator) Result() *Result {
	r := &Result{
		Steps:   s.step,
		Time:    s.t,
		Final:   s.last,
		Metrics: make(map[string]float64, len(s.metrics)),
	}
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
	return r
}
