package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr error
	}{
		{"defaults", func(p *Params) {}, nil},
		{"zero size", func(p *Params) { p.Size = 0 }, ErrInvalidGridSize},
		{"negative size", func(p *Params) { p.Size = -3 }, ErrInvalidGridSize},
		{"nan lambda", func(p *Params) { p.Lambda = math.NaN() }, ErrParameterBounds},
		{"inf coupling", func(p *Params) { p.Coupling[2] = math.Inf(1) }, ErrParameterBounds},
		{"nan decay", func(p *Params) { p.Attack.Decay = math.NaN() }, ErrParameterBounds},
		{"growing residual", func(p *Params) { p.Attack.Persistent = true; p.Attack.Decay = 1 }, ErrParameterBounds},
		{"negative decay", func(p *Params) { p.Attack.Persistent = true; p.Attack.Decay = -0.5 }, ErrParameterBounds},
		{"decaying residual", func(p *Params) { p.Attack.Persistent = true; p.Attack.Decay = 0.95 }, nil},
		{"decay ignored without persistence", func(p *Params) { p.Attack.Decay = 1.5 }, nil},
		{"negative omega is fine", func(p *Params) { p.Omega = -2 }, nil},
		{"bad scheme", func(p *Params) { p.Scheme = Scheme(42) }, ErrUnknownScheme},
		{"bad mode", func(p *Params) { p.Mode = CouplingMode(9) }, ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParamsSetGet(t *testing.T) {
	p := DefaultParams()
	for i, name := range ParamNames() {
		if err := p.SetParam(name, float64(i)+0.5); err != nil {
			t.Fatalf("SetParam(%s): %v", name, err)
		}
	}
	got := p.GetParams()
	for i, name := range ParamNames() {
		if got[name] != float64(i)+0.5 {
			t.Errorf("%s = %v, want %v", name, got[name], float64(i)+0.5)
		}
	}

	if err := p.SetParam("nope", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestParseModes(t *testing.T) {
	for _, name := range SchemeNames() {
		s, err := ParseScheme(name)
		if err != nil {
			t.Fatalf("ParseScheme(%q): %v", name, err)
		}
		if s.String() != name {
			t.Errorf("round trip %q -> %q", name, s.String())
		}
	}
	for _, name := range CouplingModeNames() {
		m, err := ParseCouplingMode(name)
		if err != nil {
			t.Fatalf("ParseCouplingMode(%q): %v", name, err)
		}
		if m.String() != name {
			t.Errorf("round trip %q -> %q", name, m.String())
		}
	}
	if _, err := ParseScheme("leapfrog"); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("expected ErrUnknownScheme, got %v", err)
	}
	if _, err := ParseNoisePolicy("per-stage"); err != nil {
		t.Errorf("ParseNoisePolicy: %v", err)
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 150, Time: 1.5, Wrapped: ErrUnstable}
	if !errors.Is(err, ErrUnstable) {
		t.Error("SimulationError should unwrap to ErrUnstable")
	}
	want := "step 150 (t=1.5000): dynamo: simulation unstable (state diverged)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
