package perturb

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/lattice"
)

func persistentParams() dynamo.Params {
	p := dynamo.DefaultParams()
	p.Size = 20
	p.Attack.Persistent = true
	p.Attack.HalfWidth = 0.2
	return p
}

func TestInRegion(t *testing.T) {
	tests := []struct {
		i, j int
		n    int
		in   bool
	}{
		{50, 50, 100, true},
		{40, 40, 100, true},
		{39, 50, 100, false},
		{59, 59, 100, true},
		{60, 50, 100, false},
		{0, 0, 100, false},
	}
	for _, tt := range tests {
		if got := InRegion(tt.i, tt.j, tt.n, 0.1); got != tt.in {
			t.Errorf("InRegion(%d,%d,%d) = %v, want %v", tt.i, tt.j, tt.n, got, tt.in)
		}
	}
}

func TestCellParamsInactive(t *testing.T) {
	p := dynamo.DefaultParams()
	p.Size = 10
	m := New(10)
	rng := rand.New(rand.NewSource(1))

	lambda, input := m.Lambda(5, 5, p), m.Input(5, 5, p, rng)
	if lambda != p.Lambda || input != 0 {
		t.Errorf("got (%v,%v), want (%v,0)", lambda, input, p.Lambda)
	}
}

func TestCellParamsActive(t *testing.T) {
	p := dynamo.DefaultParams()
	p.Size = 10
	p.Attack.Active = true
	m := New(10)
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 200; trial++ {
		lambda, input := m.Lambda(5, 5, p), m.Input(5, 5, p, rng)
		if lambda != p.Lambda*p.Attack.Gain {
			t.Fatalf("lambda = %v, want %v", lambda, p.Lambda*p.Attack.Gain)
		}
		if input < p.Attack.Input || input >= p.Attack.Input+p.Attack.NoiseAmp {
			t.Fatalf("input = %v outside [%v, %v)", input, p.Attack.Input, p.Attack.Input+p.Attack.NoiseAmp)
		}
	}

	lambda, input := m.Lambda(0, 0, p), m.Input(0, 0, p, rng)
	if lambda != p.Lambda || input != 0 {
		t.Errorf("outside region got (%v,%v)", lambda, input)
	}
}

func TestResidualDecaysToZero(t *testing.T) {
	p := persistentParams()
	m := New(p.Size)

	p.Attack.Active = true
	m.Advance(p)

	want := p.Lambda * (p.Attack.Gain - 1)
	if got := m.Residual(10, 10); math.Abs(got-want) > 1e-12 {
		t.Fatalf("residual after attack = %v, want %v", got, want)
	}
	if m.Residual(0, 0) != 0 {
		t.Fatal("residual outside region should stay 0")
	}

	p.Attack.Active = false
	prev := m.Residual(10, 10)
	steps := 0
	for m.Residual(10, 10) > 0 {
		m.Advance(p)
		cur := m.Residual(10, 10)
		if cur < 0 {
			t.Fatalf("residual went negative: %v", cur)
		}
		if cur > prev {
			t.Fatalf("residual increased without attack: %v -> %v", prev, cur)
		}
		if cur > 0 && math.Abs(cur-prev*p.Attack.Decay) > 1e-15 {
			t.Fatalf("decay not geometric: %v -> %v", prev, cur)
		}
		prev = cur
		steps++
		if steps > 10000 {
			t.Fatal("residual never reached zero")
		}
	}

	if m.Residual(10, 10) != 0 {
		t.Errorf("residual = %v, want exactly 0", m.Residual(10, 10))
	}
	// 0.4 * 0.999^k < 0.01  =>  k = ceil(ln(0.025)/ln(0.999))
	expected := int(math.Ceil(math.Log(p.Attack.Threshold/want) / math.Log(p.Attack.Decay)))
	if steps != expected {
		t.Errorf("took %d steps to clear, want %d", steps, expected)
	}
	if got := m.Lambda(10, 10, p); got != p.Lambda {
		t.Errorf("lambda after decay = %v, want base %v", got, p.Lambda)
	}
}

func TestResidualRaisesLambda(t *testing.T) {
	p := persistentParams()
	m := New(p.Size)
	p.Attack.Active = true
	m.Advance(p)
	p.Attack.Active = false
	m.Advance(p)

	got := m.Lambda(10, 10, p)
	want := p.Lambda + p.Lambda*(p.Attack.Gain-1)*p.Attack.Decay
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("lambda = %v, want %v", got, want)
	}
}

func TestNonPersistentNeverAccumulates(t *testing.T) {
	p := dynamo.DefaultParams()
	p.Size = 10
	p.Attack.Active = true
	m := New(10)
	m.Advance(p)
	if m.Active() != 0 {
		t.Errorf("expected no residual, got %d active cells", m.Active())
	}
}

func TestKickOnlyTouchesRegion(t *testing.T) {
	p := dynamo.DefaultParams()
	p.Size = 10
	f, _ := lattice.NewField(10)
	m := New(10)
	m.Kick(f, p, rand.New(rand.NewSource(9)))

	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			re, im := f.At(i, j)
			if !InRegion(i, j, 10, p.Attack.HalfWidth) {
				if re != 0 || im != 0 {
					t.Fatalf("cell (%d,%d) outside region changed", i, j)
				}
				continue
			}
			if math.Abs(re) > KickAmplitude/2 || math.Abs(im) > KickAmplitude/2 {
				t.Fatalf("kick at (%d,%d) too large: (%v,%v)", i, j, re, im)
			}
		}
	}
}

func TestInputsInactiveZero(t *testing.T) {
	p := dynamo.DefaultParams()
	p.Size = 6
	m := New(6)
	u := make(dynamo.Control, 36)
	for k := range u {
		u[k] = 7
	}
	m.Inputs(p, rand.New(rand.NewSource(1)), u)
	for k, v := range u {
		if v != 0 {
			t.Fatalf("u[%d] = %v, want 0", k, v)
		}
	}
}
