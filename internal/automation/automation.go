package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/landau/internal/config"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/experiment"
	"github.com/san-kum/landau/internal/sim"
	"github.com/san-kum/landau/internal/storage"
)

// Scenario is a scripted lattice run: a base configuration plus events
// applied at fixed step counts.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Base is a preset name or config file path; empty means defaults.
	Base      string             `yaml:"base"`
	Seed      *int64             `yaml:"seed"`
	Size      int                `yaml:"size"`
	Steps     int                `yaml:"steps"`
	Overrides map[string]float64 `yaml:"params"`
	Events    []Event            `yaml:"events"`
	SaveAs    string             `yaml:"save_as"`
}

// Event changes the running simulation before step At is taken.
type Event struct {
	At     int                `yaml:"at"`
	Attack *bool              `yaml:"attack"`
	Set    map[string]float64 `yaml:"set"`
	Scheme string             `yaml:"scheme"`
	Mode   string             `yaml:"mode"`
	Size   int                `yaml:"size"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i, ev := range scenario.Events {
		if ev.At < 0 || (scenario.Steps > 0 && ev.At > scenario.Steps) {
			return nil, fmt.Errorf("event %d: step %d outside [0, %d]", i+1, ev.At, scenario.Steps)
		}
	}
	return &scenario, nil
}

// apply edits p according to the event.
func (ev Event) apply(p *dynamo.Params) error {
	if ev.Attack != nil {
		p.Attack.Active = *ev.Attack
	}
	for k, v := range ev.Set {
		if err := p.SetParam(k, v); err != nil {
			return err
		}
	}
	if ev.Scheme != "" {
		s, err := dynamo.ParseScheme(ev.Scheme)
		if err != nil {
			return err
		}
		p.Scheme = s
	}
	if ev.Mode != "" {
		m, err := dynamo.ParseCouplingMode(ev.Mode)
		if err != nil {
			return err
		}
		p.Mode = m
	}
	if ev.Size > 0 {
		p.Size = ev.Size
	}
	return nil
}

// Runner executes scenarios and Monte Carlo batches.
type Runner struct {
	registry *experiment.Registry
	store    *storage.Store
	logger   *log.Logger
}

// NewRunner returns a runner. store may be nil, in which case save_as is
// ignored.
func NewRunner(registry *experiment.Registry, store *storage.Store, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{registry: registry, store: store, logger: logger}
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Result *sim.Result
	Series []dynamo.Diagnostics
	// Params is the configuration in effect when the run ended.
	Params dynamo.Params
	RunID  string
}

func (r *Runner) buildConfig(sc *Scenario) (*config.Config, error) {
	cfg, err := r.registry.Resolve(sc.Base)
	if err != nil {
		return nil, err
	}
	if sc.Seed != nil {
		cfg.Seed = *sc.Seed
	}
	if sc.Size > 0 {
		cfg.Size = sc.Size
	}
	if sc.Steps > 0 {
		cfg.Steps = sc.Steps
	}
	return cfg, nil
}

// RunScenario executes the scenario, applying events in step order.
func (r *Runner) RunScenario(ctx context.Context, sc *Scenario) (*ScenarioResult, error) {
	cfg, err := r.buildConfig(sc)
	if err != nil {
		return nil, err
	}
	exp, err := experiment.New(cfg, nil, sim.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	s := exp.GetSimulator()

	if len(sc.Overrides) > 0 {
		if err := r.applyEvent(s, Event{Set: sc.Overrides}); err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
	}

	events := append([]Event(nil), sc.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	done := 0
	for i, ev := range events {
		if err := s.Run(ctx, ev.At-done, nil); err != nil {
			return nil, err
		}
		done = ev.At
		if err := r.applyEvent(s, ev); err != nil {
			return nil, fmt.Errorf("event %d at step %d: %w", i+1, ev.At, err)
		}
		r.logger.Info("event applied", "scenario", sc.Name, "step", ev.At)
	}
	if err := s.Run(ctx, cfg.Steps-done, nil); err != nil {
		return nil, err
	}

	out := &ScenarioResult{Result: s.Result(), Series: exp.History(), Params: s.Params()}
	if sc.SaveAs != "" && r.store != nil {
		meta := exp.Metadata(sc.SaveAs)
		meta.ID = sc.SaveAs
		id, err := r.store.Save(meta, out.Series, s.Field())
		if err != nil {
			return out, err
		}
		out.RunID = id
	}
	return out, nil
}

func (r *Runner) applyEvent(s *sim.Simulator, ev Event) error {
	p := s.Params()
	if err := ev.apply(&p); err != nil {
		return err
	}
	return s.Configure(p)
}

// MonteCarloConfig defines a batch of runs that differ in seed and in a
// uniform jitter applied to one parameter.
type MonteCarloConfig struct {
	Base      string
	Steps     int
	Trials    int
	Seed      int64
	Param     string
	Jitter    float64
	Overrides map[string]float64
}

// MonteCarloResult holds the outcome of one trial.
type MonteCarloResult struct {
	TrialID    int
	Seed       int64
	ParamValue float64
	Final      dynamo.Diagnostics
	// Stable is false when the run diverged.
	Stable bool
}

// RunMonteCarlo executes cfg.Trials independent runs. A diverged trial is
// recorded as unstable rather than aborting the batch.
func (r *Runner) RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig) ([]MonteCarloResult, error) {
	base, err := r.registry.Resolve(cfg.Base)
	if err != nil {
		return nil, err
	}
	if cfg.Steps > 0 {
		base.Steps = cfg.Steps
	}
	jitter := rand.New(rand.NewSource(cfg.Seed))

	results := make([]MonteCarloResult, 0, cfg.Trials)
	for trial := 0; trial < cfg.Trials; trial++ {
		c := base.Clone()
		c.Seed = cfg.Seed + int64(trial)

		exp, err := experiment.New(c, nil)
		if err != nil {
			return nil, err
		}
		s := exp.GetSimulator()
		p := s.Params()
		for k, v := range cfg.Overrides {
			if err := p.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		var value float64
		if cfg.Param != "" {
			value = p.GetParams()[cfg.Param] + (jitter.Float64()*2-1)*cfg.Jitter
			if err := p.SetParam(cfg.Param, value); err != nil {
				return nil, err
			}
		}
		if err := s.Configure(p); err != nil {
			return nil, err
		}

		_, runErr := exp.Run(ctx)
		if runErr != nil && !errors.Is(runErr, dynamo.ErrUnstable) {
			return results, runErr
		}

		results = append(results, MonteCarloResult{
			TrialID:    trial,
			Seed:       c.Seed,
			ParamValue: value,
			Final:      s.Diagnostics(),
			Stable:     runErr == nil,
		})

		if (trial+1)%10 == 0 {
			r.logger.Info("monte carlo progress", "done", trial+1, "total", cfg.Trials)
		}
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
