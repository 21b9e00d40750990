package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/landau/internal/experiment"
	"github.com/san-kum/landau/internal/storage"
)

const scenarioYAML = `
name: attack-and-release
description: switch the attack on, retune, switch it off
base: persistent
seed: 9
size: 10
steps: 60
params:
  omega: 0.3
events:
  - at: 40
    attack: false
  - at: 10
    attack: true
  - at: 25
    set:
      lambda: 0.2
    mode: dn
save_as: scripted
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	if sc.Name != "attack-and-release" || sc.Steps != 60 || len(sc.Events) != 3 {
		t.Errorf("unexpected scenario: %+v", sc)
	}
	if sc.Events[1].Attack == nil || !*sc.Events[1].Attack {
		t.Error("second event should switch the attack on")
	}
	if sc.Seed == nil || *sc.Seed != 9 {
		t.Error("seed not parsed")
	}

	if _, err := ParseScenario([]byte("steps: 10\nevents:\n  - at: 11\n")); err == nil {
		t.Error("expected error for event past the last step")
	}
	if _, err := ParseScenario([]byte("steps: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())
	runner := NewRunner(experiment.NewRegistry(), st, nil)

	out, err := runner.RunScenario(context.Background(), sc)
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	if out.Result.Steps != 60 || len(out.Series) != 60 {
		t.Errorf("steps %d, series %d", out.Result.Steps, len(out.Series))
	}
	if out.Params.Attack.Active {
		t.Error("attack should be off after the last event")
	}
	if out.Params.Lambda != 0.2 || out.Params.Omega != 0.3 || out.Params.Mode.String() != "dn" {
		t.Errorf("unexpected final params: %+v", out.Params)
	}
	if out.RunID != "scripted" {
		t.Errorf("run id = %q", out.RunID)
	}
	if _, err := st.Load("scripted"); err != nil {
		t.Errorf("saved run missing: %v", err)
	}
}

func TestRunScenarioBadEvent(t *testing.T) {
	sc, err := ParseScenario([]byte("steps: 5\nsize: 4\nevents:\n  - at: 2\n    set:\n      mass: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(experiment.NewRegistry(), nil, nil)
	if _, err := runner.RunScenario(context.Background(), sc); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.SaveAs != "scripted" {
		t.Errorf("save_as = %q", sc.SaveAs)
	}
}

func TestRunMonteCarlo(t *testing.T) {
	runner := NewRunner(experiment.NewRegistry(), nil, nil)

	base := filepath.Join(t.TempDir(), "base.yaml")
	if err := os.WriteFile(base, []byte("size: 6\n"), 0644); err != nil {
		t.Fatal(err)
	}
	results, err := runner.RunMonteCarlo(context.Background(), MonteCarloConfig{
		Base:   base,
		Steps:  30,
		Trials: 4,
		Seed:   100,
		Param:  "lambda",
		Jitter: 0.05,
	})
	if err != nil {
		t.Fatalf("RunMonteCarlo: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 trials, got %d", len(results))
	}
	for i, r := range results {
		if r.Seed != 100+int64(i) {
			t.Errorf("trial %d seed %d", i, r.Seed)
		}
		if r.ParamValue < 0.05 || r.ParamValue > 0.15 {
			t.Errorf("trial %d lambda %v outside jitter band", i, r.ParamValue)
		}
	}
	if stable, unstable := MonteCarloStats(results); stable != 4 || unstable != 0 {
		t.Errorf("stats = %d/%d", stable, unstable)
	}
}

func TestRunMonteCarloDivergence(t *testing.T) {
	runner := NewRunner(experiment.NewRegistry(), nil, nil)

	base := filepath.Join(t.TempDir(), "explode.yaml")
	if err := os.WriteFile(base, []byte("size: 4\nscheme: euler\n"), 0644); err != nil {
		t.Fatal(err)
	}
	results, err := runner.RunMonteCarlo(context.Background(), MonteCarloConfig{
		Base:      base,
		Steps:     200,
		Trials:    2,
		Overrides: map[string]float64{"dt": 5, "lambda": 3},
	})
	if err != nil {
		t.Fatalf("RunMonteCarlo: %v", err)
	}
	if stable, unstable := MonteCarloStats(results); stable != 0 || unstable != 2 {
		t.Errorf("stats = %d/%d, want 0/2", stable, unstable)
	}
}
