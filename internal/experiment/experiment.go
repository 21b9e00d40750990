package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/landau/internal/config"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/metrics"
	"github.com/san-kum/landau/internal/sim"
	"github.com/san-kum/landau/internal/storage"
)

// Experiment is one configured lattice run with its metrics and recorded
// diagnostics.
type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
	history   *metrics.History
}

// New builds the simulator described by cfg, seeded from cfg.Seed, with
// the given metrics attached. A nil metrics slice attaches the standard
// set.
func New(cfg *config.Config, ms []dynamo.Metric, opts ...sim.Option) (*Experiment, error) {
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	pattern, err := cfg.InitPattern()
	if err != nil {
		return nil, err
	}

	opts = append([]sim.Option{sim.WithPattern(pattern)}, opts...)
	s, err := sim.New(p, rand.New(rand.NewSource(cfg.Seed)), opts...)
	if err != nil {
		return nil, err
	}

	if ms == nil {
		ms = metrics.Standard()
	}
	for _, m := range ms {
		s.AddMetric(m)
	}
	history := metrics.NewHistory(0)
	s.AddObserver(history)

	return &Experiment{cfg: cfg.Clone(), simulator: s, history: history}, nil
}

// Run advances the configured number of steps.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not set up")
	}
	if err := e.simulator.Run(ctx, e.cfg.Steps, nil); err != nil {
		return e.simulator.Result(), err
	}
	return e.simulator.Result(), nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// History returns every diagnostics record produced so far.
func (e *Experiment) History() []dynamo.Diagnostics {
	return e.history.Items()
}

// Metadata describes the current state of the run for storage.
func (e *Experiment) Metadata(name string) storage.RunMetadata {
	r := e.simulator.Result()
	p := e.simulator.Params()
	return storage.RunMetadata{
		Name:    name,
		Seed:    e.cfg.Seed,
		Size:    p.Size,
		Steps:   r.Steps,
		Time:    r.Time,
		Dt:      p.Dt,
		Scheme:  p.Scheme.String(),
		Mode:    p.Mode.String(),
		Config:  e.cfg.Clone(),
		Final:   r.Final,
		Metrics: r.Metrics,
	}
}

// Save stores metadata, diagnostics and the final field under st.
func (e *Experiment) Save(st *storage.Store, name string) (string, error) {
	return st.Save(e.Metadata(name), e.History(), e.simulator.Field())
}
